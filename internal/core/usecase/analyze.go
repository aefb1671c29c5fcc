package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

const terminalWriteTimeout = 15 * time.Second

type AnalyzeImageUseCase struct {
	images     ports.ImageRepository
	responses  ports.AnalysisResponseRepository
	storage    ports.ObjectStorage
	backend    ports.ExtractionBackend
	fanOut     ports.PrescriptionFanOut
	prompt     domain.ExtractionPrompt
	stagingDir string
	observer   ports.PipelineObserver
	now        func() time.Time
}

type AnalyzeOptions struct {
	StagingDir string
	Observer   ports.PipelineObserver
}

func NewAnalyzeImageUseCase(
	images ports.ImageRepository,
	responses ports.AnalysisResponseRepository,
	storage ports.ObjectStorage,
	backend ports.ExtractionBackend,
	fanOut ports.PrescriptionFanOut,
	prompt domain.ExtractionPrompt,
	options AnalyzeOptions,
) *AnalyzeImageUseCase {
	return &AnalyzeImageUseCase{
		images:     images,
		responses:  responses,
		storage:    storage,
		backend:    backend,
		fanOut:     fanOut,
		prompt:     prompt,
		stagingDir: options.StagingDir,
		observer:   observerOrNoop(options.Observer),
		now:        time.Now,
	}
}

type extraction struct {
	result  any
	rawText string
}

// Analyze runs the background phase for one image and ends with exactly one
// terminal write. Extraction failures are recorded on the image, not returned;
// an error is returned only when the record could not be loaded or closed.
func (uc *AnalyzeImageUseCase) Analyze(ctx context.Context, imageID string) error {
	image, err := uc.images.GetByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("fetch image by id: %w", err)
	}
	if image.Status.IsTerminal() {
		slog.Info("analysis_skipped", "image_id", imageID, "status", string(image.Status))
		return nil
	}

	start := uc.now()
	uc.observer.AnalysisStarted()

	out, runErr := uc.runGuarded(ctx, image)

	outcome := domain.AnalysisOutcome{
		Status:      domain.StatusCompleted,
		Result:      out.result,
		RawText:     out.rawText,
		CompletedAt: uc.now().UTC(),
	}
	if runErr != nil {
		outcome.Status = domain.StatusFailed
		outcome.Result = nil
		outcome.ErrorMessage = runErr.Error()
	}

	// The terminal write must land even if the caller's context is already gone.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	if err := uc.images.Complete(writeCtx, imageID, outcome); err != nil {
		uc.observer.AnalysisFinished(domain.StatusProcessing, time.Since(start))
		return fmt.Errorf("set status=%s: %w", outcome.Status, err)
	}

	duration := time.Since(start)
	uc.observer.AnalysisFinished(outcome.Status, duration)
	if runErr != nil {
		slog.Warn("analysis_failed",
			"image_id", imageID,
			"user_id", image.UserID,
			"duration_ms", duration.Milliseconds(),
			"error", runErr,
		)
		return nil
	}
	slog.Info("analysis_completed",
		"image_id", imageID,
		"user_id", image.UserID,
		"duration_ms", duration.Milliseconds(),
	)

	uc.fanOutPrescriptions(writeCtx, image, out.result)
	return nil
}

func (uc *AnalyzeImageUseCase) runGuarded(ctx context.Context, image *domain.ImageUpload) (out extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panic: %v", r)
		}
	}()
	return uc.extract(ctx, image)
}

func (uc *AnalyzeImageUseCase) extract(ctx context.Context, image *domain.ImageUpload) (extraction, error) {
	var out extraction

	staged, cleanup, err := stageImage(ctx, uc.storage, image, uc.stagingDir)
	defer cleanup()
	if err != nil {
		return out, err
	}

	file, err := uc.backend.Upload(ctx, staged)
	if err != nil {
		return out, domain.WrapError(domain.ErrUpstream, "upload image to extraction backend", err)
	}
	defer uc.release(ctx, image.ID, file)

	text, err := uc.backend.Generate(ctx, file, uc.prompt.Text)
	if err != nil {
		return out, domain.WrapError(domain.ErrUpstream, "generate extraction", err)
	}
	out.rawText = text

	parsed, parseErr := ParseExtraction(text)
	if err := uc.saveResponse(ctx, image, text, parsed, parseErr); err != nil {
		return out, err
	}
	if parseErr != nil {
		return out, parseErr
	}
	out.result = parsed
	return out, nil
}

func (uc *AnalyzeImageUseCase) release(ctx context.Context, imageID string, file domain.BackendFile) {
	if err := uc.backend.Release(context.WithoutCancel(ctx), file); err != nil {
		slog.Warn("extraction_file_release_failed", "image_id", imageID, "file", file.Name, "error", err)
	}
}

func (uc *AnalyzeImageUseCase) saveResponse(
	ctx context.Context,
	image *domain.ImageUpload,
	rawText string,
	parsed any,
	parseErr error,
) error {
	response := &domain.AnalysisResponse{
		ID:            uuid.NewString(),
		ImageID:       image.ID,
		UserID:        image.UserID,
		Success:       parseErr == nil,
		Data:          parsed,
		RawText:       rawText,
		Model:         uc.backend.Model(),
		PromptVersion: uc.prompt.Version,
		CreatedAt:     uc.now().UTC(),
	}
	if parseErr != nil {
		response.Error = parseErr.Error()
	}
	if err := uc.responses.Save(ctx, response); err != nil {
		return domain.WrapError(domain.ErrStorage, "save analysis response", err)
	}
	return nil
}

// fanOutPrescriptions runs after the image is already completed; a failure here
// is logged and leaves the registry behind the analysis.
func (uc *AnalyzeImageUseCase) fanOutPrescriptions(ctx context.Context, image *domain.ImageUpload, result any) {
	if uc.fanOut == nil || image.UserID == "" {
		return
	}
	fields, ok := result.(map[string]any)
	if !ok {
		return
	}
	items, ok := fields["prescriptions"].([]any)
	if !ok || len(items) == 0 {
		return
	}

	applied, err := uc.fanOut.FanOut(ctx, image.UserID, items)
	if err != nil {
		slog.Error("prescription_fanout_failed", "image_id", image.ID, "user_id", image.UserID, "error", err)
		return
	}
	slog.Info("prescription_fanout_applied", "image_id", image.ID, "user_id", image.UserID, "applied", applied)
}
