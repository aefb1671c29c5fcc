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

type LabReportRepository struct {
	coll *mongo.Collection
}

func NewLabReportRepository(db *mongo.Database) *LabReportRepository {
	return &LabReportRepository{coll: db.Collection(labReportsCollection)}
}

func (r *LabReportRepository) Create(ctx context.Context, report *domain.LabReport) error {
	if _, err := r.coll.InsertOne(ctx, report); err != nil {
		return storageError("insert lab report", err)
	}
	return nil
}

func (r *LabReportRepository) GetByID(ctx context.Context, userID, id string) (*domain.LabReport, error) {
	var report domain.LabReport
	err := r.coll.FindOne(ctx, ownedBy(userID, id)).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get lab report", fmt.Errorf("lab report not found: %s", id))
		}
		return nil, storageError("find lab report", err)
	}
	return &report, nil
}

func (r *LabReportRepository) List(ctx context.Context, userID string, page domain.Page) ([]domain.LabReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page.Skip)).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, byUser(userID), opts)
	if err != nil {
		return nil, storageError("list lab reports", err)
	}
	reports := make([]domain.LabReport, 0, page.Limit)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, storageError("decode lab reports", err)
	}
	return reports, nil
}

func (r *LabReportRepository) Count(ctx context.Context, userID string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, byUser(userID))
	if err != nil {
		return 0, storageError("count lab reports", err)
	}
	return n, nil
}

func (r *LabReportRepository) Replace(ctx context.Context, report *domain.LabReport) error {
	res, err := r.coll.ReplaceOne(ctx, ownedBy(report.UserID, report.ID), report)
	if err != nil {
		return storageError("replace lab report", err)
	}
	if res.MatchedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "replace lab report", fmt.Errorf("lab report not found: %s", report.ID))
	}
	return nil
}

func (r *LabReportRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.coll.DeleteOne(ctx, ownedBy(userID, id))
	if err != nil {
		return storageError("delete lab report", err)
	}
	if res.DeletedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "delete lab report", fmt.Errorf("lab report not found: %s", id))
	}
	return nil
}

func ownedBy(userID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}}
}
