package repository

import (
	"context"
	"fmt"

	locationsrepo "mesa/internal/locations/repository"
	"mesa/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LedgerRepository mutates the occupancy ledger embedded in Location
// documents. Writes are targeted $push/$pull on `reservations.<date>.<hour>`
// paths so two reservations touching different hours never conflict on the
// whole document.
type LedgerRepository interface {
	AddEntries(ctx context.Context, locationID string, date string, hours []string, reservationID string, units int) error
	RemoveEntries(ctx context.Context, locationID string, date string, hours []string, reservationID string) error
}

type mongoLedgerRepository struct {
	collection *mongo.Collection
}

func NewMongoLedgerRepository(cfg *config.Config) LedgerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLedgerRepository{
		collection: db.Collection(locationsrepo.CollectionName),
	}
}

// AddEntries writes `units` copies of the reservation ID under every hour of
// the stay. Called inside the reservation transaction, after the
// availability re-check has passed.
func (r *mongoLedgerRepository) AddEntries(ctx context.Context, locationID string, date string, hours []string, reservationID string, units int) error {
	if len(hours) == 0 || units <= 0 {
		return nil
	}

	objectID, err := primitive.ObjectIDFromHex(locationID)
	if err != nil {
		return fmt.Errorf("invalid location ID for ledger write: %s", locationID)
	}

	entries := make([]string, units)
	for i := range entries {
		entries[i] = reservationID
	}

	push := bson.M{}
	for _, hour := range hours {
		push[fmt.Sprintf("reservations.%s.%s", date, hour)] = bson.M{"$each": entries}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$push": push})
	if err != nil {
		return fmt.Errorf("failed to write ledger entries: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("location not found for ledger write: %s", locationID)
	}
	return nil
}

// RemoveEntries pulls every copy of the reservation ID from the given hours.
// $pull removes all matches, so per-seat duplicates disappear in one update.
func (r *mongoLedgerRepository) RemoveEntries(ctx context.Context, locationID string, date string, hours []string, reservationID string) error {
	if len(hours) == 0 {
		return nil
	}

	objectID, err := primitive.ObjectIDFromHex(locationID)
	if err != nil {
		return fmt.Errorf("invalid location ID for ledger write: %s", locationID)
	}

	pull := bson.M{}
	for _, hour := range hours {
		pull[fmt.Sprintf("reservations.%s.%s", date, hour)] = reservationID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$pull": pull})
	if err != nil {
		return fmt.Errorf("failed to remove ledger entries: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("location not found for ledger write: %s", locationID)
	}
	return nil
}
