package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func TestFanOutSkipsInvalidItems(t *testing.T) {
	registry := newMemoryRegistryRepo()
	uc := NewPrescriptionFanOutUseCase(registry, nil)

	items := []any{
		map[string]any{"drug_name": "A", "dosage": "1+0+1", "duration": "5 days"},
		map[string]any{"drug_name": "B"},
	}
	applied, err := uc.FanOut(context.Background(), "user-1", items)
	if err != nil {
		t.Fatalf("FanOut() error = %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied item, got %d", applied)
	}

	reg, err := registry.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := domain.Drug{DrugName: "A", Dosage: "1+0+1", Duration: "5 days"}
	if len(reg.AllDrugs) != 1 || reg.AllDrugs[0] != want {
		t.Fatalf("unexpected all_drugs: %+v", reg.AllDrugs)
	}
	if len(reg.ActiveDrugs) != 1 || reg.ActiveDrugs[0] != want {
		t.Fatalf("unexpected active_drugs: %+v", reg.ActiveDrugs)
	}
}

func TestFanOutKeepsDuplicates(t *testing.T) {
	registry := newMemoryRegistryRepo()
	uc := NewPrescriptionFanOutUseCase(registry, nil)
	item := map[string]any{"drug_name": "A", "dosage": "1+0+1", "duration": "5 days", "instruction": "before bed"}

	for i := 0; i < 2; i++ {
		if _, err := uc.FanOut(context.Background(), "user-1", []any{item}); err != nil {
			t.Fatalf("FanOut() error = %v", err)
		}
	}

	reg, _ := registry.Get(context.Background(), "user-1")
	if len(reg.AllDrugs) != 2 || len(reg.ActiveDrugs) != 2 {
		t.Fatalf("expected duplicates to accumulate, got %+v", reg)
	}
	if reg.AllDrugs[0].Instructions != "before bed" {
		t.Fatalf("expected singular instruction to be accepted, got %+v", reg.AllDrugs[0])
	}
}

func TestFanOutAllInvalidSkipsWrite(t *testing.T) {
	registry := newMemoryRegistryRepo()
	uc := NewPrescriptionFanOutUseCase(registry, nil)

	applied, err := uc.FanOut(context.Background(), "user-1", []any{
		"not an object",
		map[string]any{"drug_name": " ", "dosage": "1", "duration": "2 days"},
		map[string]any{"drug_name": "C", "dosage": nil, "duration": "2 days"},
	})
	if err != nil {
		t.Fatalf("FanOut() error = %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected nothing applied, got %d", applied)
	}
	if registry.appendCalls != 0 {
		t.Fatalf("expected no registry write")
	}
}

func TestFanOutNumericFieldsAreAccepted(t *testing.T) {
	registry := newMemoryRegistryRepo()
	uc := NewPrescriptionFanOutUseCase(registry, nil)

	applied, err := uc.FanOut(context.Background(), "user-1", []any{
		map[string]any{"drug_name": "Vitamin D", "dosage": float64(1), "duration": float64(30)},
	})
	if err != nil || applied != 1 {
		t.Fatalf("FanOut() = %d, %v", applied, err)
	}
	reg, _ := registry.Get(context.Background(), "user-1")
	if reg.AllDrugs[0].Dosage != "1" || reg.AllDrugs[0].Duration != "30" {
		t.Fatalf("unexpected numeric conversion: %+v", reg.AllDrugs[0])
	}
}

func TestFanOutStoreFailure(t *testing.T) {
	registry := newMemoryRegistryRepo()
	registry.appendErr = errors.New("write conflict")
	uc := NewPrescriptionFanOutUseCase(registry, nil)

	_, err := uc.FanOut(context.Background(), "user-1", []any{
		map[string]any{"drug_name": "A", "dosage": "1+0+1", "duration": "5 days"},
	})
	if !domain.IsKind(err, domain.ErrStorage) {
		t.Fatalf("expected storage failure, got %v", err)
	}
}

func TestFanOutRequiresUser(t *testing.T) {
	uc := NewPrescriptionFanOutUseCase(newMemoryRegistryRepo(), nil)
	if _, err := uc.FanOut(context.Background(), "", nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
