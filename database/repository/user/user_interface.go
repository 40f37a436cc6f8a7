package userRepo

import (
	"context"

	"orgalerts/models"
)

// UserRepository defines methods for delivery-token data access.
type UserRepository interface {
	// GetByID retrieves the token-relevant fields of a user.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetToken stores the caller's delivery token, creating the user document if needed.
	SetToken(ctx context.Context, id, token, platform string) error
	// ClearToken removes a user's delivery token.
	ClearToken(ctx context.Context, id string) error
	// ClearShortTokens unsets every token shorter than minLen and returns how many were cleared.
	ClearShortTokens(ctx context.Context, minLen int) (int64, error)
	// CountWithTokens returns how many users currently hold a delivery token.
	CountWithTokens(ctx context.Context) (int64, error)
}
