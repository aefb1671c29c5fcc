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

// DrugRegistryRepository keeps one document per user with all_drugs and active_drugs.
// Every mutation is a single-document update so concurrent writers never lose entries.
type DrugRegistryRepository struct {
	coll *mongo.Collection
}

func NewDrugRegistryRepository(db *mongo.Database) *DrugRegistryRepository {
	return &DrugRegistryRepository{coll: db.Collection(drugRegistriesCollection)}
}

func (r *DrugRegistryRepository) Get(ctx context.Context, userID string) (*domain.DrugRegistry, error) {
	var registry domain.DrugRegistry
	err := r.coll.FindOne(ctx, byUser(userID)).Decode(&registry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.WrapError(domain.ErrNotFound, "get drug registry", fmt.Errorf("no drug registry for user %s", userID))
		}
		return nil, storageError("find drug registry", err)
	}
	return &registry, nil
}

func (r *DrugRegistryRepository) AppendAll(ctx context.Context, userID string, drugs []domain.Drug) error {
	return r.push(ctx, userID, drugs, "all_drugs")
}

func (r *DrugRegistryRepository) AppendPrescribed(ctx context.Context, userID string, drugs []domain.Drug) error {
	return r.push(ctx, userID, drugs, "all_drugs", "active_drugs")
}

func (r *DrugRegistryRepository) push(ctx context.Context, userID string, drugs []domain.Drug, fields ...string) error {
	if len(drugs) == 0 {
		return nil
	}
	each := bson.D{}
	for _, field := range fields {
		each = append(each, bson.E{Key: field, Value: bson.D{{Key: "$each", Value: drugs}}})
	}
	update := bson.D{
		{Key: "$push", Value: each},
		{Key: "$setOnInsert", Value: bson.D{{Key: "user_id", Value: userID}}},
	}
	if _, err := r.coll.UpdateOne(ctx, byUser(userID), update, options.Update().SetUpsert(true)); err != nil {
		return storageError("push drugs", err)
	}
	return nil
}

// PushActive only matches while no active entry shares the identity.
func (r *DrugRegistryRepository) PushActive(ctx context.Context, userID string, drug domain.Drug) error {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "active_drugs", Value: bson.D{{Key: "$not", Value: bson.D{{Key: "$elemMatch", Value: keyFilter(drug.Key())}}}}},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$push", Value: bson.D{{Key: "active_drugs", Value: drug}}}})
	if err != nil {
		return storageError("push active drug", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, userID); err != nil {
			return err
		}
		return domain.WrapError(domain.ErrConflict, "push active drug", fmt.Errorf("%s %s is already active", drug.DrugName, drug.Dosage))
	}
	return nil
}

func (r *DrugRegistryRepository) PullActive(ctx context.Context, userID string, key domain.DrugKey) error {
	return r.pull(ctx, userID, key, "active_drugs")
}

// PullEverywhere matches on all_drugs and pulls the identity from both lists.
func (r *DrugRegistryRepository) PullEverywhere(ctx context.Context, userID string, key domain.DrugKey) error {
	return r.pull(ctx, userID, key, "all_drugs", "active_drugs")
}

func (r *DrugRegistryRepository) pull(ctx context.Context, userID string, key domain.DrugKey, fields ...string) error {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: fields[0], Value: bson.D{{Key: "$elemMatch", Value: keyFilter(key)}}},
	}
	pull := bson.D{}
	for _, field := range fields {
		pull = append(pull, bson.E{Key: field, Value: keyFilter(key)})
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.D{{Key: "$pull", Value: pull}})
	if err != nil {
		return storageError("pull drug", err)
	}
	if res.MatchedCount == 0 {
		return domain.WrapError(domain.ErrNotFound, "pull drug", fmt.Errorf("%s %s not found in %s", key.DrugName, key.Dosage, fields[0]))
	}
	return nil
}

func byUser(userID string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}}
}

func keyFilter(key domain.DrugKey) bson.D {
	return bson.D{{Key: "drug_name", Value: key.DrugName}, {Key: "dosage", Value: key.Dosage}}
}
