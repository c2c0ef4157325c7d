package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	scheduleserrors "opatam/internal/schedules/errors"
	"opatam/pkg/config"
	mongotx "opatam/pkg/db/mongo"
	"opatam/pkg/model"
)

const (
	WeeklySchedulesCollection = "Weekly_schedules"
	BlockedPeriodsCollection  = "Blocked_periods"
)

type mongoScheduleRepository struct {
	cfg       *config.Config
	weekly    *mongo.Collection
	blocked   *mongo.Collection
	txManager mongotx.TransactionManager
}

type ScheduleRepository interface {
	// FindWeek returns only the stored days of one member, ordered by day_of_week.
	FindWeek(ctx context.Context, providerID, memberID string) ([]model.WeeklyDaySchedule, error)
	ReplaceWeek(ctx context.Context, providerID, memberID string, days []model.WeeklyDaySchedule) error
	CreateBlockedPeriods(ctx context.Context, periods []*model.BlockedPeriod) error
	DeleteBlockedPeriod(ctx context.Context, providerID, id string) error
	// FindBlockedPeriods returns periods intersecting the inclusive date range
	// [from, to]. An empty memberID matches every member of the provider.
	FindBlockedPeriods(ctx context.Context, providerID, memberID, from, to string) ([]model.BlockedPeriod, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:       cfg,
		weekly:    db.Collection(WeeklySchedulesCollection),
		blocked:   db.Collection(BlockedPeriodsCollection),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoScheduleRepository) FindWeek(ctx context.Context, providerID, memberID string) ([]model.WeeklyDaySchedule, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"provider_id": providerID, "member_id": memberID}
	opts := options.Find().SetSort(bson.D{{Key: "day_of_week", Value: 1}})

	cursor, err := r.weekly.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly schedule: %w", err)
	}
	defer cursor.Close(ctx)

	var days []model.WeeklyDaySchedule
	if err = cursor.All(ctx, &days); err != nil {
		return nil, fmt.Errorf("failed to decode weekly schedule: %w", err)
	}
	return days, nil
}

// ReplaceWeek upserts one document per day keyed by (provider, member, day).
func (r *mongoScheduleRepository) ReplaceWeek(ctx context.Context, providerID, memberID string, days []model.WeeklyDaySchedule) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	writes := make([]mongo.WriteModel, 0, len(days))
	for _, d := range days {
		d.ID = ""
		d.ProviderID = providerID
		d.MemberID = memberID
		d.UpdatedAt = now
		filter := bson.M{"provider_id": providerID, "member_id": memberID, "day_of_week": d.DayOfWeek}
		writes = append(writes, mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(d).SetUpsert(true))
	}

	if _, err := r.weekly.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to replace weekly schedule: %w", err)
	}
	return nil
}

func (r *mongoScheduleRepository) CreateBlockedPeriods(ctx context.Context, periods []*model.BlockedPeriod) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(periods))
	for _, p := range periods {
		p.CreatedAt = now
		docs = append(docs, p)
	}

	result, err := r.blocked.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create blocked periods: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(periods) {
			periods[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoScheduleRepository) DeleteBlockedPeriod(ctx context.Context, providerID, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrInvalidID, id)
	}

	result, err := r.blocked.DeleteOne(ctx, bson.M{"_id": objectID, "provider_id": providerID})
	if err != nil {
		return fmt.Errorf("failed to delete blocked period: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", scheduleserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoScheduleRepository) FindBlockedPeriods(ctx context.Context, providerID, memberID, from, to string) ([]model.BlockedPeriod, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// dates are stored as YYYY-MM-DD so lexical order is calendar order
	filter := bson.M{
		"provider_id": providerID,
		"start_date":  bson.M{"$lte": to},
		"end_date":    bson.M{"$gte": from},
	}
	if memberID != "" {
		filter["member_id"] = memberID
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.blocked.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked periods: %w", err)
	}
	defer cursor.Close(ctx)

	var periods []model.BlockedPeriod
	if err = cursor.All(ctx, &periods); err != nil {
		return nil, fmt.Errorf("failed to decode blocked periods: %w", err)
	}
	return periods, nil
}

func (r *mongoScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
