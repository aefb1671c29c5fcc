package ports

import (
	"context"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

// ImageSubmitter is the synchronous half of the upload pipeline.
type ImageSubmitter interface {
	Submit(ctx context.Context, submission domain.ImageSubmission) (*domain.ImageUpload, error)
}

// ImageReader is the read model for image records and their analysis.
type ImageReader interface {
	GetStatus(ctx context.Context, imageID, userID string) (*domain.ImageUpload, error)
	ListByUser(ctx context.Context, userID string, page domain.Page) ([]domain.ImageUpload, error)
	GetAnalysisResponse(ctx context.Context, imageID, userID string) (*domain.AnalysisResponse, error)
}

// ImageAnalyzer is the background half of the upload pipeline.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imageID string) error
}

type PrescriptionFanOut interface {
	FanOut(ctx context.Context, userID string, items []any) (int, error)
}

type DrugRegistryService interface {
	AllDrugs(ctx context.Context, userID string) ([]domain.Drug, error)
	ActiveDrugs(ctx context.Context, userID string) ([]domain.Drug, error)
	AddToAll(ctx context.Context, userID string, drugs []domain.Drug) error
	AddToActive(ctx context.Context, userID string, key domain.DrugKey) (domain.Drug, error)
	RemoveFromActive(ctx context.Context, userID string, key domain.DrugKey) error
	RemoveFromAll(ctx context.Context, userID string, key domain.DrugKey) error
}

type AccountService interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.Session, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
	Authenticate(ctx context.Context, token string) (string, error)
}

type ReadingService interface {
	AddBloodPressure(ctx context.Context, userID string, systolic, diastolic int) (domain.BloodPressureReading, error)
	AddGlucose(ctx context.Context, userID string, value float64) (domain.GlucoseReading, error)
	List(ctx context.Context, userID string, page domain.Page) (*domain.Readings, error)
	Delete(ctx context.Context, userID string, kind domain.ReadingKind, readingID string) error
}

type LabReportService interface {
	Create(ctx context.Context, userID string, report domain.LabReport) (*domain.LabReport, error)
	Get(ctx context.Context, userID, id string) (*domain.LabReport, error)
	List(ctx context.Context, userID string, page domain.Page) ([]domain.LabReport, error)
	Count(ctx context.Context, userID string) (int64, error)
	Update(ctx context.Context, userID, id string, report domain.LabReport) (*domain.LabReport, error)
	Delete(ctx context.Context, userID, id string) error
}
