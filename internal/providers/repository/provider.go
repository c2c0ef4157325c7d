package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	providerserrors "opatam/internal/providers/errors"
	"opatam/pkg/config"
	mongotx "opatam/pkg/db/mongo"
	"opatam/pkg/model"
)

const (
	CollectionName = "Providers"
)

type mongoProviderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ProviderRepository interface {
	Create(ctx context.Context, p *model.Provider) error
	FindByID(ctx context.Context, id string) (*model.Provider, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error)
	// FindPublished returns every published provider ordered by id.
	FindPublished(ctx context.Context) ([]*model.Provider, error)
	Update(ctx context.Context, id string, p *model.Provider) error
	// UpdateNextAvailable stores date, or clears the field when date is nil.
	UpdateNextAvailable(ctx context.Context, id string, date *string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoProviderRepository(cfg *config.Config) ProviderRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProviderRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoProviderRepository) Create(ctx context.Context, p *model.Provider) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	p.CreatedAt = now
	p.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (r *mongoProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providerserrors.ErrInvalidID, id)
	}

	var p model.Provider
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", providerserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}
	return &p, nil
}

func (r *mongoProviderRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*model.Provider
	if err = cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}

func (r *mongoProviderRepository) FindPublished(ctx context.Context) ([]*model.Provider, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"published": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query published providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*model.Provider
	if err = cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode published providers: %w", err)
	}
	return providers, nil
}

func (r *mongoProviderRepository) Update(ctx context.Context, id string, p *model.Provider) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", providerserrors.ErrInvalidID, id)
	}

	p.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":              p.Name,
			"published":         p.Published,
			"time_zone":         p.TimeZone,
			"default_member_id": p.DefaultMemberID,
			"members":           p.Members,
			"services":          p.Services,
			"updated_at":        p.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", providerserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoProviderRepository) UpdateNextAvailable(ctx context.Context, id string, date *string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", providerserrors.ErrInvalidID, id)
	}

	update := bson.M{"$unset": bson.M{"next_available_date": ""}}
	if date != nil {
		update = bson.M{"$set": bson.M{"next_available_date": *date}}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update next available date: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", providerserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoProviderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", providerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", providerserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoProviderRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count providers: %w", err)
	}
	return count, nil
}

func (r *mongoProviderRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
