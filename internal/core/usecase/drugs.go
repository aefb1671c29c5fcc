package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

type DrugRegistryUseCase struct {
	repo ports.DrugRegistryRepository
}

func NewDrugRegistryUseCase(repo ports.DrugRegistryRepository) *DrugRegistryUseCase {
	return &DrugRegistryUseCase{repo: repo}
}

func (uc *DrugRegistryUseCase) AllDrugs(ctx context.Context, userID string) ([]domain.Drug, error) {
	registry, err := uc.loadOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNilDrugs(registry.AllDrugs), nil
}

func (uc *DrugRegistryUseCase) ActiveDrugs(ctx context.Context, userID string) ([]domain.Drug, error) {
	registry, err := uc.loadOrEmpty(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNilDrugs(registry.ActiveDrugs), nil
}

func (uc *DrugRegistryUseCase) AddToAll(ctx context.Context, userID string, drugs []domain.Drug) error {
	if err := requireUser(userID, "add drugs"); err != nil {
		return err
	}
	if len(drugs) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "add drugs", errors.New("at least one drug is required"))
	}
	for i, drug := range drugs {
		if !drug.Key().Valid() {
			return domain.WrapError(domain.ErrInvalidInput, "add drugs", fmt.Errorf("drug %d: drug_name and dosage are required", i))
		}
	}
	if err := uc.repo.AppendAll(ctx, userID, drugs); err != nil {
		return domain.WrapError(domain.ErrStorage, "add drugs", err)
	}
	return nil
}

// AddToActive copies the all_drugs entry matching key into active_drugs.
func (uc *DrugRegistryUseCase) AddToActive(ctx context.Context, userID string, key domain.DrugKey) (domain.Drug, error) {
	registry, err := uc.loadForMutation(ctx, userID, key, "activate drug")
	if err != nil {
		return domain.Drug{}, err
	}
	entry, ok := registry.FindAll(key)
	if !ok {
		return domain.Drug{}, domain.WrapError(domain.ErrNotFound, "activate drug", errors.New("drug not found in all_drugs"))
	}
	if _, ok := registry.FindActive(key); ok {
		return domain.Drug{}, domain.WrapError(domain.ErrConflict, "activate drug", errors.New("drug already exists in active_drugs"))
	}
	if err := uc.repo.PushActive(ctx, userID, entry); err != nil {
		return domain.Drug{}, err
	}
	return entry, nil
}

// RemoveFromActive removes every active entry matching key.
func (uc *DrugRegistryUseCase) RemoveFromActive(ctx context.Context, userID string, key domain.DrugKey) error {
	registry, err := uc.loadForMutation(ctx, userID, key, "deactivate drug")
	if err != nil {
		return err
	}
	if _, ok := registry.FindActive(key); !ok {
		return domain.WrapError(domain.ErrNotFound, "deactivate drug", errors.New("drug not found in active_drugs"))
	}
	return uc.repo.PullActive(ctx, userID, key)
}

// RemoveFromAll removes every entry matching key from both lists.
func (uc *DrugRegistryUseCase) RemoveFromAll(ctx context.Context, userID string, key domain.DrugKey) error {
	registry, err := uc.loadForMutation(ctx, userID, key, "remove drug")
	if err != nil {
		return err
	}
	if _, ok := registry.FindAll(key); !ok {
		return domain.WrapError(domain.ErrNotFound, "remove drug", errors.New("drug not found in all_drugs"))
	}
	return uc.repo.PullEverywhere(ctx, userID, key)
}

func (uc *DrugRegistryUseCase) loadOrEmpty(ctx context.Context, userID string) (*domain.DrugRegistry, error) {
	if err := requireUser(userID, "read drugs"); err != nil {
		return nil, err
	}
	registry, err := uc.repo.Get(ctx, userID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return &domain.DrugRegistry{UserID: userID}, nil
		}
		return nil, err
	}
	return registry, nil
}

func (uc *DrugRegistryUseCase) loadForMutation(ctx context.Context, userID string, key domain.DrugKey, operation string) (*domain.DrugRegistry, error) {
	if err := requireUser(userID, operation); err != nil {
		return nil, err
	}
	if !key.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, operation, errors.New("drug_name and dosage are required"))
	}
	return uc.repo.Get(ctx, userID)
}

func requireUser(userID, operation string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, operation, errors.New("user id is required"))
	}
	return nil
}

func nonNilDrugs(drugs []domain.Drug) []domain.Drug {
	if drugs == nil {
		return []domain.Drug{}
	}
	return drugs
}
