package followerRepo

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

// MongoFollowerRepo implements FollowerRepository using MongoDB.
type MongoFollowerRepo struct {
	coll *mongo.Collection
}

// NewMongoFollowerRepo creates a new instance of FollowerRepository using MongoDB.
func NewMongoFollowerRepo(db *mongo.Database) FollowerRepository {
	repo := &MongoFollowerRepo{coll: db.Collection("followers")}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create follower indexes: %v\n", err)
	}
	return repo
}

func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func key(orgID, userID string) bson.M {
	return bson.M{"organizationId": orgID, "userId": userID}
}

func groupField(groupID string) string {
	return "groupPreferences." + groupID
}

func (r *MongoFollowerRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organizationId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoFollowerRepo) ListFollowerIDs(ctx context.Context, orgID string) ([]string, error) {
	ctx, cancel := newContext(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"organizationId": orgID,
		"alertsEnabled":  bson.M{"$ne": false},
	}
	opts := options.Find().SetProjection(bson.M{"userId": 1})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers of %s: %w", orgID, err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var f models.Follower
		if err := cursor.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode follower: %w", err)
		}
		ids = append(ids, f.UserID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

func (r *MongoFollowerRepo) Get(ctx context.Context, orgID, userID string) (*models.Follower, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var f models.Follower
	if err := r.coll.FindOne(ctx, key(orgID, userID)).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch follower %s/%s: %w", orgID, userID, err)
	}
	return &f, nil
}

// SetGroupPreferenceIfAbsent never creates the follower document; a user who
// unfollowed between resolve and write stays unfollowed.
func (r *MongoFollowerRepo) SetGroupPreferenceIfAbsent(ctx context.Context, orgID, userID, groupID string, value bool) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	filter := key(orgID, userID)
	filter[groupField(groupID)] = bson.M{"$exists": false}
	update := bson.M{"$set": bson.M{groupField(groupID): value}}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to initialize preference %s for %s/%s: %w", groupID, orgID, userID, err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *MongoFollowerRepo) SetGroupPreference(ctx context.Context, orgID, userID, groupID string, value bool) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{groupField(groupID): value}}
	result, err := r.coll.UpdateOne(ctx, key(orgID, userID), update)
	if err != nil {
		return fmt.Errorf("failed to set preference %s for %s/%s: %w", groupID, orgID, userID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	return nil
}

func (r *MongoFollowerRepo) SetAlertsEnabled(ctx context.Context, orgID, userID string, enabled bool) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx, key(orgID, userID), bson.M{"$set": bson.M{"alertsEnabled": enabled}})
	if err != nil {
		return fmt.Errorf("failed to update follower %s/%s: %w", orgID, userID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	return nil
}

func (r *MongoFollowerRepo) Follow(ctx context.Context, f *models.Follower) error {
	_, err := r.InsertIfAbsent(ctx, f)
	return err
}

func (r *MongoFollowerRepo) InsertIfAbsent(ctx context.Context, f *models.Follower) (bool, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	if f.FollowedAt.IsZero() {
		f.FollowedAt = time.Now()
	}
	onInsert := bson.M{
		"organizationId": f.OrganizationID,
		"userId":         f.UserID,
		"followedAt":     f.FollowedAt,
	}
	if len(f.GroupPreferences) > 0 {
		onInsert["groupPreferences"] = f.GroupPreferences
	}
	if f.AlertsEnabled != nil {
		onInsert["alertsEnabled"] = *f.AlertsEnabled
	}

	update := bson.M{"$setOnInsert": onInsert}
	result, err := r.coll.UpdateOne(ctx, key(f.OrganizationID, f.UserID), update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("failed to follow %s as %s: %w", f.OrganizationID, f.UserID, err)
	}
	return result.UpsertedCount > 0, nil
}

func (r *MongoFollowerRepo) Delete(ctx context.Context, orgID, userID string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, key(orgID, userID))
	if err != nil {
		return fmt.Errorf("failed to delete follower %s/%s: %w", orgID, userID, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("follower %s/%s: %w", orgID, userID, database.ErrNotFound)
	}
	return nil
}
