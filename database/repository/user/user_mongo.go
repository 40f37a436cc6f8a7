package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orgalerts/database"
	"orgalerts/models"
	"orgalerts/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{coll: db.Collection("users")}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create user indexes: %v\n", err)
	}
	return repo
}

// newContext bounds a single repository call when the caller has no deadline of its own.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

var tokenProjection = bson.M{"id": 1, "role": 1, "fcmToken": 1, "platform": 1, "alertsEnabled": 1, "tokenUpdatedAt": 1}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetProjection(tokenProjection)
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %s: %w", id, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return &user, nil
}

func (r *MongoUserRepo) SetToken(ctx context.Context, id, token, platform string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"fcmToken":       utils.NormalizeToken(token),
			"platform":       platform,
			"tokenUpdatedAt": now,
		},
		"$setOnInsert": bson.M{"id": id},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to store token for user %s: %w", id, err)
	}
	return nil
}

func (r *MongoUserRepo) ClearToken(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$unset": bson.M{"fcmToken": "", "platform": ""},
		"$set":   bson.M{"tokenUpdatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to clear token for user %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *MongoUserRepo) ClearShortTokens(ctx context.Context, minLen int) (int64, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()

	// Same measure as utils.TokenLength.
	filter := bson.M{
		"fcmToken": bson.M{"$type": "string"},
		"$expr": bson.M{
			"$lt": bson.A{
				bson.M{"$strLenCP": bson.M{"$trim": bson.M{"input": "$fcmToken"}}},
				utils.MinTokenLength(minLen),
			},
		},
	}
	update := bson.M{
		"$unset": bson.M{"fcmToken": ""},
		"$set":   bson.M{"tokenUpdatedAt": time.Now()},
	}
	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to clear invalid tokens: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoUserRepo) CountWithTokens(ctx context.Context) (int64, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"fcmToken": bson.M{"$type": "string", "$ne": ""}})
	if err != nil {
		return 0, fmt.Errorf("failed to count users with tokens: %w", err)
	}
	return n, nil
}
