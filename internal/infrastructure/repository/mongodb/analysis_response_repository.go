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

type AnalysisResponseRepository struct {
	coll *mongo.Collection
}

func NewAnalysisResponseRepository(db *mongo.Database) *AnalysisResponseRepository {
	return &AnalysisResponseRepository{coll: db.Collection(analysisResponsesCollection)}
}

// Save upserts by (user_id, image_id); a rerun replaces the previous audit copy.
func (r *AnalysisResponseRepository) Save(ctx context.Context, response *domain.AnalysisResponse) error {
	filter := bson.D{
		{Key: "user_id", Value: response.UserID},
		{Key: "image_id", Value: response.ImageID},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "success", Value: response.Success},
			{Key: "data", Value: response.Data},
			{Key: "raw_text", Value: response.RawText},
			{Key: "error", Value: response.Error},
			{Key: "model", Value: response.Model},
			{Key: "prompt_version", Value: response.PromptVersion},
			{Key: "created_at", Value: response.CreatedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "_id", Value: response.ID}}},
	}
	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return storageError("save analysis response", err)
	}
	return nil
}

func (r *AnalysisResponseRepository) Get(ctx context.Context, imageID, userID string) (*domain.AnalysisResponse, error) {
	var response domain.AnalysisResponse
	err := r.coll.FindOne(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "image_id", Value: imageID},
	}).Decode(&response)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get analysis response", fmt.Errorf("no analysis response for image %s", imageID))
		}
		return nil, storageError("find analysis response", err)
	}
	return &response, nil
}
