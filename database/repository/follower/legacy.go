package followerRepo

import (
	"context"
	"fmt"
	"time"

	"orgalerts/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoLegacyFollowerRepo reads the flat "legacyFollowers" collection.
type MongoLegacyFollowerRepo struct {
	coll *mongo.Collection
}

func NewMongoLegacyFollowerRepo(db *mongo.Database) LegacyFollowerRepository {
	return &MongoLegacyFollowerRepo{coll: db.Collection("legacyFollowers")}
}

func (r *MongoLegacyFollowerRepo) ListAll(ctx context.Context) ([]models.LegacyFollower, error) {
	ctx, cancel := newContext(ctx, 60*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list legacy followers: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.LegacyFollower
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode legacy followers: %w", err)
	}
	return rows, nil
}

func (r *MongoLegacyFollowerRepo) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := newContext(ctx, 60*time.Second)
	defer cancel()

	result, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete legacy followers: %w", err)
	}
	return result.DeletedCount, nil
}
