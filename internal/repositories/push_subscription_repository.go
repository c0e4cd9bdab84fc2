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

// PushSubscriptionRepository defines the interface for push endpoint operations
type PushSubscriptionRepository interface {
	Subscribe(ctx context.Context, sub *models.PushSubscription) error
	ListByUser(ctx context.Context, userID uint) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
	PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

// MongoPushSubscriptionRepository implements PushSubscriptionRepository for MongoDB
type MongoPushSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoPushSubscriptionRepository creates a new MongoPushSubscriptionRepository
func NewMongoPushSubscriptionRepository(db *mongo.Database) *MongoPushSubscriptionRepository {
	return &MongoPushSubscriptionRepository{collection: db.Collection("push_subscriptions")}
}

// EnsureIndexes enforces endpoint uniqueness across all users
func (r *MongoPushSubscriptionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "endpoint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	})
	return err
}

// Subscribe registers an endpoint, keyed by the endpoint itself: resubscribing
// from the same browser installation refreshes the key material and renews the
// retention window instead of creating a second row.
func (r *MongoPushSubscriptionRepository) Subscribe(ctx context.Context, sub *models.PushSubscription) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"user_id":    sub.UserID,
			"p256dh":     sub.P256dh,
			"auth":       sub.Auth,
			"user_agent": sub.UserAgent,
			"renewed_at": now,
		},
		"$setOnInsert": bson.M{
			"endpoint":   sub.Endpoint,
			"created_at": now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"endpoint": sub.Endpoint}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save push subscription: %w", err)
	}
	return nil
}

// ListByUser returns every registered endpoint for one user
func (r *MongoPushSubscriptionRepository) ListByUser(ctx context.Context, userID uint) ([]models.PushSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.PushSubscription
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteByEndpoint removes the matching subscription; absence is not an error
func (r *MongoPushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return err
}

// DeleteByUser removes every subscription of one user (account cleanup)
func (r *MongoPushSubscriptionRepository) DeleteByUser(ctx context.Context, userID uint) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PurgeExpired sweeps subscriptions that were never renewed within the
// retention window, independent of delivery outcomes.
func (r *MongoPushSubscriptionRepository) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"renewed_at": bson.M{"$lt": olderThan}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
