package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

type ReadingRepository struct {
	coll *mongo.Collection
}

func NewReadingRepository(db *mongo.Database) *ReadingRepository {
	return &ReadingRepository{coll: db.Collection(readingsCollection)}
}

func (r *ReadingRepository) AddBloodPressure(ctx context.Context, userID string, reading domain.BloodPressureReading) error {
	return r.push(ctx, userID, readingField(domain.ReadingBloodPressure), reading)
}

func (r *ReadingRepository) AddGlucose(ctx context.Context, userID string, reading domain.GlucoseReading) error {
	return r.push(ctx, userID, readingField(domain.ReadingGlucose), reading)
}

func (r *ReadingRepository) push(ctx context.Context, userID, field string, reading any) error {
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: field, Value: reading}}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "user_id", Value: userID}}},
	}
	if _, err := r.coll.UpdateOne(ctx, byUser(userID), update, options.Update().SetUpsert(true)); err != nil {
		return storageError("push reading", err)
	}
	return nil
}

func (r *ReadingRepository) Get(ctx context.Context, userID string) (*domain.Readings, error) {
	var readings domain.Readings
	err := r.coll.FindOne(ctx, byUser(userID)).Decode(&readings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get readings", fmt.Errorf("no readings for user %s", userID))
		}
		return nil, storageError("find readings", err)
	}
	return &readings, nil
}

func (r *ReadingRepository) Delete(ctx context.Context, userID string, kind domain.ReadingKind, readingID string) error {
	field := readingField(kind)
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: field + ".id", Value: readingID},
	}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: field, Value: bson.D{{Key: "id", Value: readingID}}}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return storageError("pull reading", err)
	}
	if res.MatchedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete reading", fmt.Errorf("reading not found: %s", readingID))
	}
	return nil
}

func readingField(kind domain.ReadingKind) string {
	if kind == domain.ReadingGlucose {
		return "glucose_readings"
	}
	return "blood_pressure_readings"
}
