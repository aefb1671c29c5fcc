package ports

import (
	"context"
	"io"
	"time"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

// ImageRepository persists image tracking records.
type ImageRepository interface {
	Create(ctx context.Context, image *domain.ImageUpload) error
	GetByID(ctx context.Context, id string) (*domain.ImageUpload, error)
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.ImageUpload, error)
	// Complete applies the terminal outcome only while the record is still processing.
	Complete(ctx context.Context, id string, outcome domain.AnalysisOutcome) error
}

// AnalysisResponseRepository keeps the audit copy of every extraction run.
type AnalysisResponseRepository interface {
	Save(ctx context.Context, response *domain.AnalysisResponse) error
	Get(ctx context.Context, imageID, userID string) (*domain.AnalysisResponse, error)
}

// DrugRegistryRepository exposes the atomic single-document updates of a registry.
type DrugRegistryRepository interface {
	Get(ctx context.Context, userID string) (*domain.DrugRegistry, error)
	AppendAll(ctx context.Context, userID string, drugs []domain.Drug) error
	AppendPrescribed(ctx context.Context, userID string, drugs []domain.Drug) error
	PushActive(ctx context.Context, userID string, drug domain.Drug) error
	PullActive(ctx context.Context, userID string, key domain.DrugKey) error
	PullEverywhere(ctx context.Context, userID string, key domain.DrugKey) error
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type ReadingRepository interface {
	AddBloodPressure(ctx context.Context, userID string, reading domain.BloodPressureReading) error
	AddGlucose(ctx context.Context, userID string, reading domain.GlucoseReading) error
	Get(ctx context.Context, userID string) (*domain.Readings, error)
	Delete(ctx context.Context, userID string, kind domain.ReadingKind, readingID string) error
}

type LabReportRepository interface {
	Create(ctx context.Context, report *domain.LabReport) error
	GetByID(ctx context.Context, userID, id string) (*domain.LabReport, error)
	List(ctx context.Context, userID string, page domain.Page) ([]domain.LabReport, error)
	Count(ctx context.Context, userID string) (int64, error)
	Replace(ctx context.Context, report *domain.LabReport) error
	Delete(ctx context.Context, userID, id string) error
}

// ObjectStorage stores uploaded image bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// AnalysisDispatcher schedules the analyze phase without blocking the caller.
type AnalysisDispatcher interface {
	Dispatch(ctx context.Context, imageID string) error
}

// MessageQueue publishes/consumes analysis requests between processes.
type MessageQueue interface {
	PublishAnalysisRequested(ctx context.Context, imageID string) error
	SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// ExtractionBackend turns an image plus instruction into free-form text.
type ExtractionBackend interface {
	Upload(ctx context.Context, image domain.StagedImage) (domain.BackendFile, error)
	Generate(ctx context.Context, file domain.BackendFile, prompt string) (string, error)
	Release(ctx context.Context, file domain.BackendFile) error
	Model() string
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies bearer tokens whose subject is a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// PipelineObserver receives pipeline events for metrics.
type PipelineObserver interface {
	UploadRejected(reason string)
	UploadAccepted()
	AnalysisStarted()
	AnalysisFinished(status domain.AnalysisStatus, duration time.Duration)
	FanOutApplied(applied, skipped int)
}
