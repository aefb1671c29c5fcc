package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

type memoryImageRepo struct {
	mu            sync.Mutex
	images        map[string]domain.ImageUpload
	createErr     error
	completeErr   error
	completeCalls int
}

func newMemoryImageRepo() *memoryImageRepo {
	return &memoryImageRepo{images: make(map[string]domain.ImageUpload)}
}

func (r *memoryImageRepo) Create(_ context.Context, image *domain.ImageUpload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.images[image.ID] = *image
	return nil
}

func (r *memoryImageRepo) GetByID(_ context.Context, id string) (*domain.ImageUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	image, ok := r.images[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get image", errors.New("image not found"))
	}
	return &image, nil
}

func (r *memoryImageRepo) ListByUser(_ context.Context, userID string, page domain.Page) ([]domain.ImageUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ImageUpload
	for _, image := range r.images {
		if image.UserID == userID {
			out = append(out, image)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return pageSlice(out, page), nil
}

func (r *memoryImageRepo) Complete(_ context.Context, id string, outcome domain.AnalysisOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completeCalls++
	if r.completeErr != nil {
		return r.completeErr
	}
	image, ok := r.images[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "complete image", errors.New("image not found"))
	}
	if image.Status != domain.StatusProcessing {
		return domain.WrapError(domain.ErrConflict, "complete image", errors.New("image is not processing"))
	}
	completedAt := outcome.CompletedAt
	image.Status = outcome.Status
	image.AnalysisResult = outcome.Result
	image.RawText = outcome.RawText
	image.ErrorMessage = outcome.ErrorMessage
	image.CompletedAt = &completedAt
	r.images[id] = image
	return nil
}

func (r *memoryImageRepo) get(id string) domain.ImageUpload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images[id]
}

func (r *memoryImageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.images)
}

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
	openErr error
	removed []string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte)}
}

func (s *memoryStorage) Save(_ context.Context, key string, data io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = raw
	return nil
}

func (s *memoryStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	raw, ok := s.objects[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *memoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, key)
	delete(s.objects, key)
	return nil
}

type fakeBackend struct {
	text        string
	uploadErr   error
	generateErr error
	panicMsg    string
	block       chan struct{}

	mu           sync.Mutex
	uploads      []domain.StagedImage
	stagedBytes  []byte
	prompts      []string
	released     []domain.BackendFile
	generateCall int
}

func (b *fakeBackend) Upload(_ context.Context, image domain.StagedImage) (domain.BackendFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, image)
	if raw, err := os.ReadFile(image.Path); err == nil {
		b.stagedBytes = raw
	}
	if b.uploadErr != nil {
		return domain.BackendFile{}, b.uploadErr
	}
	return domain.BackendFile{Name: "files/abc", MIMEType: image.MIMEType}, nil
}

func (b *fakeBackend) Generate(_ context.Context, _ domain.BackendFile, prompt string) (string, error) {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generateCall++
	b.prompts = append(b.prompts, prompt)
	if b.panicMsg != "" {
		panic(b.panicMsg)
	}
	if b.generateErr != nil {
		return "", b.generateErr
	}
	return b.text, nil
}

func (b *fakeBackend) Release(_ context.Context, file domain.BackendFile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = append(b.released, file)
	return nil
}

func (b *fakeBackend) Model() string { return "fake-vision" }

func (b *fakeBackend) calls() (uploads, generates, releases int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploads), b.generateCall, len(b.released)
}

type memoryResponseRepo struct {
	mu      sync.Mutex
	saved   []domain.AnalysisResponse
	saveErr error
}

func (r *memoryResponseRepo) Save(_ context.Context, response *domain.AnalysisResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, *response)
	return nil
}

func (r *memoryResponseRepo) Get(_ context.Context, imageID, userID string) (*domain.AnalysisResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].ImageID == imageID && r.saved[i].UserID == userID {
			response := r.saved[i]
			return &response, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get analysis response", errors.New("analysis response not found"))
}

// memoryRegistryRepo mirrors the conditional push/pull semantics of the store.
type memoryRegistryRepo struct {
	mu          sync.Mutex
	registries  map[string]*domain.DrugRegistry
	appendErr   error
	appendCalls int
}

func newMemoryRegistryRepo() *memoryRegistryRepo {
	return &memoryRegistryRepo{registries: make(map[string]*domain.DrugRegistry)}
}

func (r *memoryRegistryRepo) Get(_ context.Context, userID string) (*domain.DrugRegistry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registries[userID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get drug registry", errors.New("drug registry not found"))
	}
	out := domain.DrugRegistry{
		UserID:      reg.UserID,
		AllDrugs:    append([]domain.Drug(nil), reg.AllDrugs...),
		ActiveDrugs: append([]domain.Drug(nil), reg.ActiveDrugs...),
	}
	return &out, nil
}

func (r *memoryRegistryRepo) upsert(userID string) *domain.DrugRegistry {
	reg, ok := r.registries[userID]
	if !ok {
		reg = &domain.DrugRegistry{UserID: userID}
		r.registries[userID] = reg
	}
	return reg
}

func (r *memoryRegistryRepo) AppendAll(_ context.Context, userID string, drugs []domain.Drug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg := r.upsert(userID)
	reg.AllDrugs = append(reg.AllDrugs, drugs...)
	return nil
}

func (r *memoryRegistryRepo) AppendPrescribed(_ context.Context, userID string, drugs []domain.Drug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendCalls++
	if r.appendErr != nil {
		return r.appendErr
	}
	reg := r.upsert(userID)
	reg.AllDrugs = append(reg.AllDrugs, drugs...)
	reg.ActiveDrugs = append(reg.ActiveDrugs, drugs...)
	return nil
}

func (r *memoryRegistryRepo) PushActive(_ context.Context, userID string, drug domain.Drug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registries[userID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "push active drug", errors.New("drug registry not found"))
	}
	if _, ok := reg.FindActive(drug.Key()); ok {
		return domain.WrapError(domain.ErrConflict, "push active drug", errors.New("drug already active"))
	}
	reg.ActiveDrugs = append(reg.ActiveDrugs, drug)
	return nil
}

func (r *memoryRegistryRepo) PullActive(_ context.Context, userID string, key domain.DrugKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registries[userID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "pull active drug", errors.New("drug registry not found"))
	}
	var removed int
	reg.ActiveDrugs, removed = withoutKey(reg.ActiveDrugs, key)
	if removed == 0 {
		return domain.WrapError(domain.ErrNotFound, "pull active drug", errors.New("drug not active"))
	}
	return nil
}

func (r *memoryRegistryRepo) PullEverywhere(_ context.Context, userID string, key domain.DrugKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.registries[userID]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "pull drug", errors.New("drug registry not found"))
	}
	var removed int
	reg.AllDrugs, removed = withoutKey(reg.AllDrugs, key)
	if removed == 0 {
		return domain.WrapError(domain.ErrNotFound, "pull drug", errors.New("drug not found"))
	}
	reg.ActiveDrugs, _ = withoutKey(reg.ActiveDrugs, key)
	return nil
}

func withoutKey(drugs []domain.Drug, key domain.DrugKey) ([]domain.Drug, int) {
	out := drugs[:0:0]
	removed := 0
	for _, d := range drugs {
		if d.Matches(key) {
			removed++
			continue
		}
		out = append(out, d)
	}
	return out, removed
}
