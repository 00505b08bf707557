package repository

import (
	"context"
	"fmt"
	"time"

	"mesa/pkg/config"
	"mesa/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Activity"
)

type mongoActivityRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityEntry) error
	FindByLocation(ctx context.Context, locationID string, limit int, offset int) ([]*model.ActivityEntry, error)
	CountByLocation(ctx context.Context, locationID string) (int64, error)
}

func NewMongoActivityRepository(cfg *config.Config) ActivityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoActivityRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoActivityRepository) Create(ctx context.Context, entry *model.ActivityEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoActivityRepository) FindByLocation(ctx context.Context, locationID string, limit int, offset int) ([]*model.ActivityEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"location_id": locationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.ActivityEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activity entries: %w", err)
	}
	return entries, nil
}

func (r *mongoActivityRepository) CountByLocation(ctx context.Context, locationID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"location_id": locationID})
	if err != nil {
		return 0, fmt.Errorf("failed to count activity entries: %w", err)
	}
	return count, nil
}
