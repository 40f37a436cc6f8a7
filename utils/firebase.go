// utils/firebase.go
package utils

import (
	"context"
	"fmt"

	"orgalerts/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// NewFCMClient initializes the Firebase App and returns its Messaging client.
// Without a credentials file the application default credentials are used.
func NewFCMClient(ctx context.Context) (*messaging.Client, error) {
	var opts []option.ClientOption
	if path := config.AppConfig.FirebaseCredentialsFile; path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}

	var fbConfig *firebase.Config
	if pid := config.AppConfig.FirebaseProjectID; pid != "" {
		fbConfig = &firebase.Config{ProjectID: pid}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}
	return client, nil
}
