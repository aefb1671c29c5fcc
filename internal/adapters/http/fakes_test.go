package httpadapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/core/domain"
)

type submitterFake struct {
	err       error
	submitted domain.ImageSubmission
	body      []byte
}

func (f *submitterFake) Submit(_ context.Context, submission domain.ImageSubmission) (*domain.ImageUpload, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, err := io.ReadAll(submission.Body)
	if err != nil {
		return nil, err
	}
	f.submitted = submission
	f.body = raw
	return &domain.ImageUpload{
		ID:               "img-1",
		UserID:           submission.UserID,
		OriginalFilename: submission.Filename,
		Status:           domain.StatusProcessing,
		UploadedAt:       time.Now().UTC(),
	}, nil
}

type imageReaderFake struct {
	images   map[string]*domain.ImageUpload
	response *domain.AnalysisResponse
	lastPage domain.Page
}

func (f *imageReaderFake) GetStatus(_ context.Context, imageID, userID string) (*domain.ImageUpload, error) {
	image, ok := f.images[imageID]
	if !ok || (userID != "" && image.UserID != userID) {
		return nil, domain.WrapError(domain.ErrNotFound, "get image status", errors.New("image not found"))
	}
	return image, nil
}

func (f *imageReaderFake) ListByUser(_ context.Context, userID string, page domain.Page) ([]domain.ImageUpload, error) {
	f.lastPage = page
	var out []domain.ImageUpload
	for _, image := range f.images {
		if image.UserID == userID {
			out = append(out, *image)
		}
	}
	return out, nil
}

func (f *imageReaderFake) GetAnalysisResponse(ctx context.Context, imageID, userID string) (*domain.AnalysisResponse, error) {
	if _, err := f.GetStatus(ctx, imageID, userID); err != nil {
		return nil, err
	}
	if f.response == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "get analysis response", errors.New("no response"))
	}
	return f.response, nil
}

type drugsFake struct {
	all       []domain.Drug
	active    []domain.Drug
	activeErr error
}

func (f *drugsFake) AllDrugs(context.Context, string) ([]domain.Drug, error) {
	return f.all, nil
}

func (f *drugsFake) ActiveDrugs(context.Context, string) ([]domain.Drug, error) {
	return f.active, nil
}

func (f *drugsFake) AddToAll(_ context.Context, _ string, drugs []domain.Drug) error {
	if len(drugs) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "add drugs", errors.New("at least one drug is required"))
	}
	f.all = append(f.all, drugs...)
	return nil
}

func (f *drugsFake) AddToActive(_ context.Context, _ string, key domain.DrugKey) (domain.Drug, error) {
	if f.activeErr != nil {
		return domain.Drug{}, f.activeErr
	}
	drug := domain.Drug{DrugName: key.DrugName, Dosage: key.Dosage}
	f.active = append(f.active, drug)
	return drug, nil
}

func (f *drugsFake) RemoveFromActive(context.Context, string, domain.DrugKey) error { return nil }

func (f *drugsFake) RemoveFromAll(context.Context, string, domain.DrugKey) error { return nil }

type accountsFake struct {
	tokens map[string]string
	users  map[string]*domain.User
}

func (f *accountsFake) Signup(_ context.Context, req domain.SignupRequest) (*domain.Session, error) {
	if req.Email == "taken@example.com" {
		return nil, domain.WrapError(domain.ErrConflict, "signup", errors.New("email already registered"))
	}
	return &domain.Session{AccessToken: "token-new", TokenType: "bearer", User: domain.User{ID: "u-new", Email: req.Email}}, nil
}

func (f *accountsFake) Login(_ context.Context, creds domain.Credentials) (*domain.Session, error) {
	for token, userID := range f.tokens {
		if user, ok := f.users[userID]; ok && user.Email == creds.Email && creds.Password == "secret" {
			return &domain.Session{AccessToken: token, TokenType: "bearer", User: *user}, nil
		}
	}
	return nil, domain.WrapError(domain.ErrUnauthorized, "login", errors.New("invalid email or password"))
}

func (f *accountsFake) Profile(_ context.Context, userID string) (*domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "profile", errors.New("user not found"))
	}
	return user, nil
}

func (f *accountsFake) Authenticate(_ context.Context, token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("invalid token"))
	}
	return userID, nil
}

type readingsFake struct {
	deleted []string
	err     error
}

func (f *readingsFake) AddBloodPressure(_ context.Context, _ string, systolic, diastolic int) (domain.BloodPressureReading, error) {
	if systolic <= 0 || diastolic <= 0 {
		return domain.BloodPressureReading{}, domain.WrapError(domain.ErrInvalidInput, "add blood pressure", errors.New("values must be positive"))
	}
	return domain.BloodPressureReading{ID: "r-1", Systolic: systolic, Diastolic: diastolic}, nil
}

func (f *readingsFake) AddGlucose(_ context.Context, _ string, value float64) (domain.GlucoseReading, error) {
	return domain.GlucoseReading{ID: "g-1", Value: value}, nil
}

func (f *readingsFake) List(_ context.Context, userID string, _ domain.Page) (*domain.Readings, error) {
	return &domain.Readings{UserID: userID}, nil
}

func (f *readingsFake) Delete(_ context.Context, _ string, kind domain.ReadingKind, readingID string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, string(kind)+"/"+readingID)
	return nil
}

type labReportsFake struct {
	count int64
}

func (f *labReportsFake) Create(_ context.Context, userID string, report domain.LabReport) (*domain.LabReport, error) {
	report.ID = "lab-1"
	report.UserID = userID
	return &report, nil
}

func (f *labReportsFake) Get(_ context.Context, _ string, id string) (*domain.LabReport, error) {
	return nil, domain.WrapError(domain.ErrNotFound, "get lab report", errors.New("id="+id))
}

func (f *labReportsFake) List(context.Context, string, domain.Page) ([]domain.LabReport, error) {
	return nil, nil
}

func (f *labReportsFake) Count(context.Context, string) (int64, error) {
	return f.count, nil
}

func (f *labReportsFake) Update(_ context.Context, _ string, id string, report domain.LabReport) (*domain.LabReport, error) {
	report.ID = id
	return &report, nil
}

func (f *labReportsFake) Delete(context.Context, string, string) error { return nil }

type testFixture struct {
	images     *submitterFake
	imageReads *imageReaderFake
	drugs      *drugsFake
	accounts   *accountsFake
	readings   *readingsFake
	labReports *labReportsFake
}

func newTestFixture() *testFixture {
	return &testFixture{
		images:     &submitterFake{},
		imageReads: &imageReaderFake{images: map[string]*domain.ImageUpload{}},
		drugs:      &drugsFake{},
		accounts: &accountsFake{
			tokens: map[string]string{"token-alice": "alice", "token-bob": "bob"},
			users: map[string]*domain.User{
				"alice": {ID: "alice", Email: "alice@example.com", Name: "Alice"},
				"bob":   {ID: "bob", Email: "bob@example.com", Name: "Bob"},
			},
		},
		readings:   &readingsFake{},
		labReports: &labReportsFake{},
	}
}

func (f *testFixture) handler(cfg config.Config) http.Handler {
	if cfg.AuthMode == "" {
		cfg.AuthMode = config.AuthModeJWT
	}
	if cfg.UploadMaxBytes == 0 {
		cfg.UploadMaxBytes = 1 << 20
	}
	return NewRouter(cfg, Services{
		Images:     f.images,
		ImageReads: f.imageReads,
		Drugs:      f.drugs,
		Accounts:   f.accounts,
		Readings:   f.readings,
		LabReports: f.labReports,
	}, nil).Handler()
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestFixture().handler(cfg)
}

func newTestConfig() config.Config {
	return config.Config{AuthMode: config.AuthModeJWT}
}
