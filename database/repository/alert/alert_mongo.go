package alertRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orgalerts/database"
	"orgalerts/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAlertRepo implements AlertRepository using MongoDB.
type MongoAlertRepo struct {
	coll    *mongo.Collection
	orgColl *mongo.Collection
}

// NewMongoAlertRepo creates a new instance of AlertRepository using MongoDB.
func NewMongoAlertRepo(db *mongo.Database) AlertRepository {
	repo := &MongoAlertRepo{
		coll:    db.Collection("alerts"),
		orgColl: db.Collection("organizations"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create alert indexes: %v\n", err)
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func (r *MongoAlertRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "scheduledAlertId", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoAlertRepo) Create(ctx context.Context, alert *models.Alert) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, alert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("alert %s: %w", alert.ID, database.ErrDuplicate)
		}
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *MongoAlertRepo) GetByID(ctx context.Context, orgID, alertID string) (*models.Alert, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var alert models.Alert
	filter := bson.M{"id": alertID, "organizationId": orgID}
	if err := r.coll.FindOne(ctx, filter).Decode(&alert); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("alert %s: %w", alertID, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch alert %s: %w", alertID, err)
	}
	return &alert, nil
}

func (r *MongoAlertRepo) UpdateNotificationStatus(ctx context.Context, orgID, alertID string, status models.NotificationStatus) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"notificationsSent":    status.Sent,
		"notificationCount":    status.Count,
		"notificationFailures": status.Failures,
		"notificationSkipped":  status.Skipped,
	}
	unset := bson.M{}
	if status.Sent {
		set["notificationSentAt"] = status.At
	}
	if status.Error != "" {
		set["notificationError"] = status.Error
		set["notificationErrorAt"] = status.At
	} else {
		unset["notificationError"] = ""
		unset["notificationErrorAt"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": alertID, "organizationId": orgID}, update)
	if err != nil {
		return fmt.Errorf("failed to update notification status of alert %s: %w", alertID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("alert %s: %w", alertID, database.ErrNotFound)
	}
	return nil
}

func (r *MongoAlertRepo) GetOrganizationName(ctx context.Context, orgID string) (string, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var org models.Organization
	opts := options.FindOne().SetProjection(bson.M{"id": 1, "name": 1})
	if err := r.orgColl.FindOne(ctx, bson.M{"id": orgID}, opts).Decode(&org); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("organization %s: %w", orgID, database.ErrNotFound)
		}
		return "", fmt.Errorf("failed to fetch organization %s: %w", orgID, err)
	}
	return org.Name, nil
}
