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

// MongoScheduledAlertRepo implements ScheduledAlertRepository using MongoDB.
type MongoScheduledAlertRepo struct {
	coll *mongo.Collection
}

// NewMongoScheduledAlertRepo creates a new instance of ScheduledAlertRepository using MongoDB.
func NewMongoScheduledAlertRepo(db *mongo.Database) ScheduledAlertRepository {
	repo := &MongoScheduledAlertRepo{coll: db.Collection("scheduledAlerts")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create scheduled alert indexes: %v\n", err)
	}
	return repo
}

func (r *MongoScheduledAlertRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "scheduledDate", Value: 1}}},
		{Keys: bson.D{{Key: "organizationId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoScheduledAlertRepo) Create(ctx context.Context, alert *models.ScheduledAlert) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, alert); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("scheduled alert %s: %w", alert.ID, database.ErrDuplicate)
		}
		return fmt.Errorf("failed to create scheduled alert: %w", err)
	}
	return nil
}

func (r *MongoScheduledAlertRepo) GetByID(ctx context.Context, orgID, id string) (*models.ScheduledAlert, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var alert models.ScheduledAlert
	if err := r.coll.FindOne(ctx, bson.M{"id": id, "organizationId": orgID}).Decode(&alert); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("scheduled alert %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch scheduled alert %s: %w", id, err)
	}
	return &alert, nil
}

func (r *MongoScheduledAlertRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledAlert, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"isActive":      true,
		"scheduledDate": bson.M{"$lte": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query due scheduled alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var due []models.ScheduledAlert
	if err := cursor.All(ctx, &due); err != nil {
		return nil, fmt.Errorf("failed to decode scheduled alerts: %w", err)
	}
	return due, nil
}

func (r *MongoScheduledAlertRepo) ApplyTransition(ctx context.Context, id string, t models.ScheduledTransition) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"isActive":        t.IsActive,
		"executed":        t.Executed,
		"recurrenceEnded": t.RecurrenceEnded,
		"executionCount":  t.ExecutionCount,
		"executedAt":      t.At,
		"lastAlertId":     t.LastAlertID,
		"updatedAt":       t.At,
	}
	if t.NextDate != nil {
		set["scheduledDate"] = *t.NextDate
	}

	filter := bson.M{"id": id, "isActive": true, "scheduledDate": t.ExpectedDate}
	result, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to transition scheduled alert %s: %w", id, err)
	}
	return result.MatchedCount > 0, nil
}

func (r *MongoScheduledAlertRepo) Deactivate(ctx context.Context, orgID, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "organizationId": orgID}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate scheduled alert %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("scheduled alert %s: %w", id, database.ErrNotFound)
	}
	return nil
}
