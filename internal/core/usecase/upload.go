package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

const DefaultMaxUploadBytes int64 = 10 << 20

var allowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}

type UploadImageUseCase struct {
	repo       ports.ImageRepository
	storage    ports.ObjectStorage
	dispatcher ports.AnalysisDispatcher
	observer   ports.PipelineObserver
	maxBytes   int64
	now        func() time.Time
}

func NewUploadImageUseCase(
	repo ports.ImageRepository,
	storage ports.ObjectStorage,
	dispatcher ports.AnalysisDispatcher,
	maxBytes int64,
	observer ports.PipelineObserver,
) *UploadImageUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadImageUseCase{
		repo:       repo,
		storage:    storage,
		dispatcher: dispatcher,
		observer:   observerOrNoop(observer),
		maxBytes:   maxBytes,
		now:        time.Now,
	}
}

// Submit validates and stores the image, creates its processing record and
// schedules analysis. It returns before analysis starts.
func (uc *UploadImageUseCase) Submit(ctx context.Context, submission domain.ImageSubmission) (*domain.ImageUpload, error) {
	ext, err := validateImageMeta(submission.Filename, submission.ContentType)
	if err != nil {
		uc.observer.UploadRejected("invalid")
		return nil, err
	}
	body, err := uc.readBody(submission.Body)
	if err != nil {
		if domain.IsKind(err, domain.ErrPayloadTooLarge) {
			uc.observer.UploadRejected("too_large")
		} else {
			uc.observer.UploadRejected("invalid")
		}
		return nil, err
	}

	id := uuid.NewString()
	storageKey := id + ext
	now := uc.now().UTC()

	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(body)); err != nil {
		uc.discardBlob(ctx, storageKey)
		return nil, domain.WrapError(domain.ErrStorage, "save image", err)
	}

	image := &domain.ImageUpload{
		ID:               id,
		UserID:           submission.UserID,
		OriginalFilename: filepath.Base(submission.Filename),
		StoragePath:      storageKey,
		ContentType:      submission.ContentType,
		Size:             int64(len(body)),
		Status:           domain.StatusProcessing,
		UploadedAt:       now,
	}
	if err := uc.repo.Create(ctx, image); err != nil {
		uc.discardBlob(ctx, storageKey)
		return nil, domain.WrapError(domain.ErrStorage, "create image record", err)
	}

	if err := uc.dispatcher.Dispatch(ctx, id); err != nil {
		uc.failUndispatched(ctx, id, err)
		if domain.IsKind(err, domain.ErrUpstream) || domain.IsKind(err, domain.ErrTemporary) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrTemporary, "dispatch analysis", err)
	}

	uc.observer.UploadAccepted()
	slog.Info("image_uploaded",
		"image_id", id,
		"user_id", submission.UserID,
		"size", image.Size,
		"content_type", image.ContentType,
	)
	return image, nil
}

func validateImageMeta(filename, contentType string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("no filename provided"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !isAllowedImageExtension(ext) {
		return "", domain.WrapError(
			domain.ErrInvalidInput,
			"validate upload",
			fmt.Errorf("file type not allowed, allowed types: %s", strings.Join(allowedImageExtensions, ", ")),
		)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return "", domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("file must be an image"))
	}
	return ext, nil
}

func isAllowedImageExtension(ext string) bool {
	for _, allowed := range allowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// readBody reads at most maxBytes+1 so oversized uploads are detected without buffering them whole.
func (uc *UploadImageUseCase) readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("empty file"))
	}
	body, err := io.ReadAll(io.LimitReader(r, uc.maxBytes+1))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	if len(body) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("empty file"))
	}
	if int64(len(body)) > uc.maxBytes {
		return nil, domain.WrapError(
			domain.ErrPayloadTooLarge,
			"validate upload",
			fmt.Errorf("file too large, max size is %d bytes", uc.maxBytes),
		)
	}
	return body, nil
}

func (uc *UploadImageUseCase) discardBlob(ctx context.Context, key string) {
	if err := uc.storage.Remove(context.WithoutCancel(ctx), key); err != nil {
		slog.Warn("image_blob_cleanup_failed", "storage_key", key, "error", err)
	}
}

// failUndispatched closes a record whose analysis never got scheduled.
func (uc *UploadImageUseCase) failUndispatched(ctx context.Context, id string, dispatchErr error) {
	outcome := domain.AnalysisOutcome{
		Status:       domain.StatusFailed,
		ErrorMessage: "dispatch analysis: " + dispatchErr.Error(),
		CompletedAt:  uc.now().UTC(),
	}
	if err := uc.repo.Complete(context.WithoutCancel(ctx), id, outcome); err != nil {
		slog.Error("image_dispatch_failure_not_recorded", "image_id", id, "error", err)
	}
}
