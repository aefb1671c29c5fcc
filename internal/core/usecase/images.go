package usecase

import (
	"context"
	"errors"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

type ImageQueryUseCase struct {
	images    ports.ImageRepository
	responses ports.AnalysisResponseRepository
}

func NewImageQueryUseCase(images ports.ImageRepository, responses ports.AnalysisResponseRepository) *ImageQueryUseCase {
	return &ImageQueryUseCase{images: images, responses: responses}
}

// GetStatus hides records owned by another user behind NotFound.
// Ownership is only checked when the acting user is known.
func (uc *ImageQueryUseCase) GetStatus(ctx context.Context, imageID, userID string) (*domain.ImageUpload, error) {
	if imageID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get image status", errors.New("image id is required"))
	}
	image, err := uc.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if userID != "" && image.UserID != userID {
		return nil, domain.WrapError(domain.ErrNotFound, "get image status", errors.New("image not found"))
	}
	return image, nil
}

func (uc *ImageQueryUseCase) ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.ImageUpload, error) {
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list images", errors.New("user id is required"))
	}
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}
	return uc.images.ListByUser(ctx, userID, page)
}

func (uc *ImageQueryUseCase) GetAnalysisResponse(ctx context.Context, imageID, userID string) (*domain.AnalysisResponse, error) {
	image, err := uc.GetStatus(ctx, imageID, userID)
	if err != nil {
		return nil, err
	}
	return uc.responses.Get(ctx, imageID, image.UserID)
}

// normalizePage applies the default limit and rejects out-of-range values.
func normalizePage(page domain.Page) (domain.Page, error) {
	if page.Limit == 0 {
		page.Limit = domain.DefaultPageLimit
	}
	if page.Limit < 1 || page.Limit > domain.MaxPageLimit {
		return page, domain.WrapError(domain.ErrInvalidInput, "paginate", errors.New("limit must be between 1 and 100"))
	}
	if page.Skip < 0 {
		return page, domain.WrapError(domain.ErrInvalidInput, "paginate", errors.New("skip must not be negative"))
	}
	return page, nil
}
