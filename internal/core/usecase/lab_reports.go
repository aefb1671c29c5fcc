package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

type LabReportUseCase struct {
	repo ports.LabReportRepository
	now  func() time.Time
}

func NewLabReportUseCase(repo ports.LabReportRepository) *LabReportUseCase {
	return &LabReportUseCase{repo: repo, now: time.Now}
}

func (uc *LabReportUseCase) Create(ctx context.Context, userID string, report domain.LabReport) (*domain.LabReport, error) {
	if err := validateLabReport(report); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	report.ID = uuid.NewString()
	report.UserID = userID
	report.CreatedAt = now
	report.UpdatedAt = now
	if err := uc.repo.Create(ctx, &report); err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "create lab report", err)
	}
	return &report, nil
}

func (uc *LabReportUseCase) Get(ctx context.Context, userID, id string) (*domain.LabReport, error) {
	if id == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get lab report", errors.New("report id is required"))
	}
	return uc.repo.GetByID(ctx, userID, id)
}

func (uc *LabReportUseCase) List(ctx context.Context, userID string, page domain.Page) ([]domain.LabReport, error) {
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}
	return uc.repo.List(ctx, userID, page)
}

func (uc *LabReportUseCase) Count(ctx context.Context, userID string) (int64, error) {
	return uc.repo.Count(ctx, userID)
}

// Update replaces the report body and keeps identity, owner and creation time.
func (uc *LabReportUseCase) Update(ctx context.Context, userID, id string, report domain.LabReport) (*domain.LabReport, error) {
	if err := validateLabReport(report); err != nil {
		return nil, err
	}
	existing, err := uc.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	report.ID = existing.ID
	report.UserID = existing.UserID
	report.CreatedAt = existing.CreatedAt
	report.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Replace(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (uc *LabReportUseCase) Delete(ctx context.Context, userID, id string) error {
	if id == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete lab report", errors.New("report id is required"))
	}
	return uc.repo.Delete(ctx, userID, id)
}

func validateLabReport(report domain.LabReport) error {
	if strings.TrimSpace(report.BasicInfo.Title) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate lab report", errors.New("basicInfo.title is required"))
	}
	return nil
}
