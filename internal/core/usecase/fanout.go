package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

type PrescriptionFanOutUseCase struct {
	registry ports.DrugRegistryRepository
	observer ports.PipelineObserver
}

func NewPrescriptionFanOutUseCase(registry ports.DrugRegistryRepository, observer ports.PipelineObserver) *PrescriptionFanOutUseCase {
	return &PrescriptionFanOutUseCase{registry: registry, observer: observerOrNoop(observer)}
}

// FanOut appends every valid prescription item to both registry lists in one
// upsert. Invalid items are skipped; duplicates are kept.
func (uc *PrescriptionFanOutUseCase) FanOut(ctx context.Context, userID string, items []any) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "fan out prescriptions", errors.New("user id is required"))
	}

	drugs := make([]domain.Drug, 0, len(items))
	skipped := 0
	for i, item := range items {
		drug, missing := prescriptionToDrug(item)
		if len(missing) > 0 {
			skipped++
			slog.Warn("prescription_item_skipped", "user_id", userID, "index", i, "missing", missing)
			continue
		}
		drugs = append(drugs, drug)
	}

	if len(drugs) == 0 {
		uc.observer.FanOutApplied(0, skipped)
		return 0, nil
	}
	if err := uc.registry.AppendPrescribed(ctx, userID, drugs); err != nil {
		return 0, domain.WrapError(domain.ErrStorage, "append prescribed drugs", err)
	}
	uc.observer.FanOutApplied(len(drugs), skipped)
	return len(drugs), nil
}

func prescriptionToDrug(item any) (domain.Drug, []string) {
	fields, ok := item.(map[string]any)
	if !ok {
		return domain.Drug{}, []string{"drug_name", "dosage", "duration"}
	}

	var missing []string
	name, ok := textField(fields, "drug_name")
	if !ok {
		missing = append(missing, "drug_name")
	}
	dosage, ok := textField(fields, "dosage")
	if !ok {
		missing = append(missing, "dosage")
	}
	duration, ok := textField(fields, "duration")
	if !ok {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		return domain.Drug{}, missing
	}

	instructions, ok := textField(fields, "instructions")
	if !ok {
		instructions, _ = textField(fields, "instruction")
	}
	return domain.Drug{
		DrugName:     name,
		Dosage:       dosage,
		Instructions: instructions,
		Duration:     duration,
	}, nil
}

// textField accepts non-blank strings and plain numbers.
func textField(fields map[string]any, key string) (string, bool) {
	switch v := fields[key].(type) {
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}
