package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "opatam/internal/bookings/repository"
	"opatam/internal/migrations/mongo/validators"
	providersrepo "opatam/internal/providers/repository"
	schedulesrepo "opatam/internal/schedules/repository"
	"opatam/pkg/logger"
)

var (
	ProvidersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "published", Value: 1}, {Key: "_id", Value: 1}}},
	}

	WeeklySchedulesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "provider_id", Value: 1},
				{Key: "member_id", Value: 1},
				{Key: "day_of_week", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	BlockedPeriodsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "provider_id", Value: 1},
			{Key: "member_id", Value: 1},
			{Key: "start_date", Value: 1},
			{Key: "end_date", Value: 1},
		}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "provider_id", Value: 1},
			{Key: "member_id", Value: 1},
			{Key: "datetime", Value: 1},
			{Key: "end_datetime", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "provider_id", Value: 1},
			{Key: "location_id", Value: 1},
			{Key: "datetime", Value: 1},
		}},
	}

	// Mongo removes expired locks on its own; the service also deletes them
	// once the booking is written.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	collections := map[string]collectionDef{
		providersrepo.CollectionName: {
			Indexes:   ProvidersIndexes,
			Validator: validators.ProviderValidator,
		},
		schedulesrepo.WeeklySchedulesCollection: {
			Indexes:   WeeklySchedulesIndexes,
			Validator: validators.WeeklyScheduleValidator,
		},
		schedulesrepo.BlockedPeriodsCollection: {
			Indexes:   BlockedPeriodsIndexes,
			Validator: validators.BlockedPeriodValidator,
		},
		bookingsrepo.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		bookingsrepo.LockCollectionName: {
			Indexes:   BookingLocksIndexes,
			Validator: validators.BookingLockValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
