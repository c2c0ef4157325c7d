package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"opatam/pkg/config"
	mongotx "opatam/pkg/db/mongo"
	"opatam/pkg/model"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository holds advisory slot locks. Expired locks are removed by
// the TTL index on expires_at.
type BookingLockRepository interface {
	// Create returns a duplicate key error when the lock is already held.
	Create(ctx context.Context, lock *model.BookingLock) error
	Delete(ctx context.Context, lockID string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		return err
	}
	return nil
}

func (r *mongoBookingLockRepository) Delete(ctx context.Context, lockID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
