package usecase

import (
	"context"
	"testing"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func seededRegistry(t *testing.T, all, active []domain.Drug) (*DrugRegistryUseCase, *memoryRegistryRepo) {
	t.Helper()
	repo := newMemoryRegistryRepo()
	repo.registries["user-1"] = &domain.DrugRegistry{UserID: "user-1", AllDrugs: all, ActiveDrugs: active}
	return NewDrugRegistryUseCase(repo), repo
}

func TestAllDrugsEmptyWhenNoRegistry(t *testing.T) {
	uc := NewDrugRegistryUseCase(newMemoryRegistryRepo())
	drugs, err := uc.AllDrugs(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("AllDrugs() error = %v", err)
	}
	if drugs == nil || len(drugs) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", drugs)
	}
}

func TestAddToAllUpsertsAndAppends(t *testing.T) {
	repo := newMemoryRegistryRepo()
	uc := NewDrugRegistryUseCase(repo)

	drugs := []domain.Drug{{DrugName: "A", Dosage: "1+0+1"}, {DrugName: "A", Dosage: "1+0+1"}}
	if err := uc.AddToAll(context.Background(), "user-1", drugs); err != nil {
		t.Fatalf("AddToAll() error = %v", err)
	}
	all, _ := uc.AllDrugs(context.Background(), "user-1")
	if len(all) != 2 {
		t.Fatalf("expected both courses to be kept, got %d", len(all))
	}
	active, _ := uc.ActiveDrugs(context.Background(), "user-1")
	if len(active) != 0 {
		t.Fatalf("add to all must not touch active_drugs")
	}
}

func TestAddToAllRejectsIncompleteDrug(t *testing.T) {
	uc := NewDrugRegistryUseCase(newMemoryRegistryRepo())
	err := uc.AddToAll(context.Background(), "user-1", []domain.Drug{{DrugName: "A"}})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAddToActiveCopiesAllDrugsEntry(t *testing.T) {
	entry := domain.Drug{DrugName: "A", Dosage: "1+0+1", Instructions: "after meal", Duration: "5 days"}
	uc, repo := seededRegistry(t, []domain.Drug{entry}, nil)

	got, err := uc.AddToActive(context.Background(), "user-1", domain.DrugKey{DrugName: "A", Dosage: "1+0+1"})
	if err != nil {
		t.Fatalf("AddToActive() error = %v", err)
	}
	if got != entry {
		t.Fatalf("expected all_drugs entry, got %+v", got)
	}
	if len(repo.registries["user-1"].ActiveDrugs) != 1 || repo.registries["user-1"].ActiveDrugs[0] != entry {
		t.Fatalf("unexpected active_drugs: %+v", repo.registries["user-1"].ActiveDrugs)
	}
}

func TestAddToActiveNotInAllIsNotFound(t *testing.T) {
	uc, _ := seededRegistry(t, []domain.Drug{{DrugName: "A", Dosage: "1"}}, nil)
	_, err := uc.AddToActive(context.Background(), "user-1", domain.DrugKey{DrugName: "A", Dosage: "2"})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddToActiveWithoutRegistryIsNotFound(t *testing.T) {
	uc := NewDrugRegistryUseCase(newMemoryRegistryRepo())
	_, err := uc.AddToActive(context.Background(), "user-1", domain.DrugKey{DrugName: "A", Dosage: "1"})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddToActiveAlreadyActiveIsConflict(t *testing.T) {
	drug := domain.Drug{DrugName: "A", Dosage: "1"}
	uc, _ := seededRegistry(t, []domain.Drug{drug}, []domain.Drug{drug})
	_, err := uc.AddToActive(context.Background(), "user-1", drug.Key())
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRemoveFromActiveRemovesAllMatches(t *testing.T) {
	a := domain.Drug{DrugName: "A", Dosage: "1"}
	b := domain.Drug{DrugName: "B", Dosage: "2"}
	uc, repo := seededRegistry(t, []domain.Drug{a, b}, []domain.Drug{a, b, a})

	if err := uc.RemoveFromActive(context.Background(), "user-1", a.Key()); err != nil {
		t.Fatalf("RemoveFromActive() error = %v", err)
	}
	reg := repo.registries["user-1"]
	if len(reg.ActiveDrugs) != 1 || reg.ActiveDrugs[0] != b {
		t.Fatalf("unexpected active_drugs: %+v", reg.ActiveDrugs)
	}
	if len(reg.AllDrugs) != 2 {
		t.Fatalf("all_drugs must be untouched, got %+v", reg.AllDrugs)
	}

	err := uc.RemoveFromActive(context.Background(), "user-1", a.Key())
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second removal, got %v", err)
	}
}

func TestRemoveFromAllAlsoRemovesFromActive(t *testing.T) {
	a := domain.Drug{DrugName: "A", Dosage: "1"}
	b := domain.Drug{DrugName: "B", Dosage: "2"}
	uc, repo := seededRegistry(t, []domain.Drug{a, a, b}, []domain.Drug{a})

	if err := uc.RemoveFromAll(context.Background(), "user-1", a.Key()); err != nil {
		t.Fatalf("RemoveFromAll() error = %v", err)
	}
	reg := repo.registries["user-1"]
	if len(reg.AllDrugs) != 1 || reg.AllDrugs[0] != b {
		t.Fatalf("unexpected all_drugs: %+v", reg.AllDrugs)
	}
	if len(reg.ActiveDrugs) != 0 {
		t.Fatalf("expected active entry to be removed, got %+v", reg.ActiveDrugs)
	}
}

func TestRemoveFromAllUnknownIsNotFound(t *testing.T) {
	uc, _ := seededRegistry(t, []domain.Drug{{DrugName: "A", Dosage: "1"}}, nil)
	err := uc.RemoveFromAll(context.Background(), "user-1", domain.DrugKey{DrugName: "Z", Dosage: "1"})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
