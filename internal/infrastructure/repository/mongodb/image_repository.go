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

type ImageRepository struct {
	coll *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{coll: db.Collection(imagesCollection)}
}

func (r *ImageRepository) Create(ctx context.Context, image *domain.ImageUpload) error {
	if _, err := r.coll.InsertOne(ctx, image); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.WrapError(domain.ErrConflict, "insert image", err)
		}
		return storageError("insert image", err)
	}
	return nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (*domain.ImageUpload, error) {
	var image domain.ImageUpload
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get image", fmt.Errorf("image not found: %s", id))
		}
		return nil, storageError("find image", err)
	}
	return &image, nil
}

func (r *ImageRepository) ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.ImageUpload, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
		SetSkip(int64(page.Skip)).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, storageError("list images", err)
	}
	images := make([]domain.ImageUpload, 0, page.Limit)
	if err := cursor.All(ctx, &images); err != nil {
		return nil, storageError("decode images", err)
	}
	return images, nil
}

// Complete is conditional on status=processing so a record is written terminal at most once.
func (r *ImageRepository) Complete(ctx context.Context, id string, outcome domain.AnalysisOutcome) error {
	set := bson.D{
		{Key: "status", Value: outcome.Status},
		{Key: "completed_at", Value: outcome.CompletedAt},
	}
	unset := bson.D{}
	if outcome.Status == domain.StatusCompleted {
		set = append(set, bson.E{Key: "analysis_result", Value: outcome.Result})
		unset = append(unset, bson.E{Key: "error_message", Value: ""})
	} else {
		set = append(set, bson.E{Key: "error_message", Value: outcome.ErrorMessage})
		unset = append(unset, bson.E{Key: "analysis_result", Value: ""})
	}
	if outcome.RawText != "" {
		set = append(set, bson.E{Key: "raw_text", Value: outcome.RawText})
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: domain.StatusProcessing}},
		bson.D{{Key: "$set", Value: set}, {Key: "$unset", Value: unset}},
	)
	if err != nil {
		return storageError("complete image", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.WrapError(domain.ErrConflict, "complete image", fmt.Errorf("image %s is no longer processing", id))
	}
	return nil
}
