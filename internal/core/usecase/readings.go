package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

type ReadingUseCase struct {
	repo ports.ReadingRepository
	now  func() time.Time
}

func NewReadingUseCase(repo ports.ReadingRepository) *ReadingUseCase {
	return &ReadingUseCase{repo: repo, now: time.Now}
}

func (uc *ReadingUseCase) AddBloodPressure(ctx context.Context, userID string, systolic, diastolic int) (domain.BloodPressureReading, error) {
	if err := requireUser(userID, "add blood pressure reading"); err != nil {
		return domain.BloodPressureReading{}, err
	}
	if systolic <= 0 || diastolic <= 0 {
		return domain.BloodPressureReading{}, domain.WrapError(
			domain.ErrInvalidInput, "add blood pressure reading", errors.New("systolic and diastolic must be positive"),
		)
	}
	reading := domain.BloodPressureReading{
		ID:        uuid.NewString(),
		Systolic:  systolic,
		Diastolic: diastolic,
		Date:      uc.now().UTC(),
	}
	if err := uc.repo.AddBloodPressure(ctx, userID, reading); err != nil {
		return domain.BloodPressureReading{}, domain.WrapError(domain.ErrStorage, "add blood pressure reading", err)
	}
	return reading, nil
}

func (uc *ReadingUseCase) AddGlucose(ctx context.Context, userID string, value float64) (domain.GlucoseReading, error) {
	if err := requireUser(userID, "add glucose reading"); err != nil {
		return domain.GlucoseReading{}, err
	}
	if value <= 0 {
		return domain.GlucoseReading{}, domain.WrapError(domain.ErrInvalidInput, "add glucose reading", errors.New("value must be positive"))
	}
	reading := domain.GlucoseReading{
		ID:    uuid.NewString(),
		Value: value,
		Date:  uc.now().UTC(),
	}
	if err := uc.repo.AddGlucose(ctx, userID, reading); err != nil {
		return domain.GlucoseReading{}, domain.WrapError(domain.ErrStorage, "add glucose reading", err)
	}
	return reading, nil
}

// List pages each reading series independently, oldest first as stored.
func (uc *ReadingUseCase) List(ctx context.Context, userID string, page domain.Page) (*domain.Readings, error) {
	if err := requireUser(userID, "list readings"); err != nil {
		return nil, err
	}
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}

	readings, err := uc.repo.Get(ctx, userID)
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			return nil, err
		}
		readings = &domain.Readings{UserID: userID}
	}
	return &domain.Readings{
		UserID:        userID,
		BloodPressure: pageSlice(readings.BloodPressure, page),
		Glucose:       pageSlice(readings.Glucose, page),
	}, nil
}

func (uc *ReadingUseCase) Delete(ctx context.Context, userID string, kind domain.ReadingKind, readingID string) error {
	if err := requireUser(userID, "delete reading"); err != nil {
		return err
	}
	if kind != domain.ReadingBloodPressure && kind != domain.ReadingGlucose {
		return domain.WrapError(domain.ErrInvalidInput, "delete reading", errors.New("unknown reading type"))
	}
	if readingID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete reading", errors.New("reading id is required"))
	}
	return uc.repo.Delete(ctx, userID, kind, readingID)
}

func pageSlice[T any](items []T, page domain.Page) []T {
	if page.Skip >= len(items) {
		return []T{}
	}
	end := page.Skip + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Skip:end]
}
