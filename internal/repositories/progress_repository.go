package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/NgocVuuu/film-sub001/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProgressRepository defines the interface for watch progress operations
type ProgressRepository interface {
	Upsert(ctx context.Context, rec *models.ProgressRecord) error
	Get(ctx context.Context, userID uint, titleID, episodeID string) (*models.ProgressRecord, error)
	ListByUser(ctx context.Context, userID uint, limit int64) ([]models.ProgressRecord, error)
	Delete(ctx context.Context, userID uint, titleID, episodeID string) error
	ClearByUser(ctx context.Context, userID uint) error
	EnsureIndexes(ctx context.Context) error
}

// MongoProgressRepository implements ProgressRepository for MongoDB
type MongoProgressRepository struct {
	collection *mongo.Collection
}

// NewMongoProgressRepository creates a new MongoProgressRepository
func NewMongoProgressRepository(db *mongo.Database) *MongoProgressRepository {
	return &MongoProgressRepository{collection: db.Collection("progress")}
}

// EnsureIndexes creates the unique compound key (user, title, episode) plus the
// sort index backing continue-watching queries.
func (r *MongoProgressRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "title_id", Value: 1},
				{Key: "episode_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "last_watched_at", Value: -1},
			},
		},
	})
	return err
}

// Upsert merges an incoming progress report into the one canonical record per
// (user, title, episode). Last write wins; replaying the same report is a no-op
// beyond the refreshed watch timestamp.
func (r *MongoProgressRepository) Upsert(ctx context.Context, rec *models.ProgressRecord) error {
	rec.Derive()
	rec.LastWatchedAt = time.Now()

	filter := bson.M{
		"user_id":    rec.UserID,
		"title_id":   rec.TitleID,
		"episode_id": rec.EpisodeID,
	}
	update := bson.M{
		"$set": bson.M{
			"title_name":      rec.TitleName,
			"title_thumb":     rec.TitleThumb,
			"episode_name":    rec.EpisodeName,
			"server_label":    rec.ServerLabel,
			"current_time":    rec.CurrentTime,
			"duration":        rec.Duration,
			"percentage":      rec.Percentage,
			"completed":       rec.Completed,
			"last_watched_at": rec.LastWatchedAt,
		},
		"$setOnInsert": filter,
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Get retrieves one progress record by its compound key
func (r *MongoProgressRepository) Get(ctx context.Context, userID uint, titleID, episodeID string) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":    userID,
		"title_id":   titleID,
		"episode_id": episodeID,
	}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("progress not found")
		}
		return nil, err
	}
	return &rec, nil
}

// ListByUser returns the user's records ordered by last watched, newest first
func (r *MongoProgressRepository) ListByUser(ctx context.Context, userID uint, limit int64) ([]models.ProgressRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_watched_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.ProgressRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes one record; deleting an absent record is not an error
func (r *MongoProgressRepository) Delete(ctx context.Context, userID uint, titleID, episodeID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"user_id":    userID,
		"title_id":   titleID,
		"episode_id": episodeID,
	})
	return err
}

// ClearByUser removes the user's entire watch history
func (r *MongoProgressRepository) ClearByUser(ctx context.Context, userID uint) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
