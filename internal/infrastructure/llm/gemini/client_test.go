package gemini

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
)

type fakeModel struct {
	parts []genai.Part
	errs  []error
	reply string
	calls int
}

func (m *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.parts = parts
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(m.reply)}},
		}},
	}, nil
}

type fakeStager struct {
	saved   map[string]string
	removed []string
}

func (s *fakeStager) Save(_ context.Context, key string, data io.Reader) error {
	body, _ := io.ReadAll(data)
	s.saved[key] = string(body)
	return nil
}

func (s *fakeStager) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	return nil
}

func staged(t *testing.T) domain.StagedImage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staged.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o600); err != nil {
		t.Fatalf("write staged: %v", err)
	}
	return domain.StagedImage{Path: path, Filename: "rx.JPG", MIMEType: "image/jpeg"}
}

func TestInlineImage(t *testing.T) {
	model := &fakeModel{reply: "  {\"ok\":true}\n"}
	backend := newBackend(model, "gemini-2.0-flash", Staging{}, nil)

	file, err := backend.Upload(context.Background(), staged(t))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	text, err := backend.Generate(context.Background(), file, "extract")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("unexpected text %q", text)
	}
	blob, ok := model.parts[0].(genai.Blob)
	if !ok || string(blob.Data) != "jpeg" || blob.MIMEType != "image/jpeg" {
		t.Fatalf("expected inline blob, got %#v", model.parts[0])
	}
	if prompt, ok := model.parts[1].(genai.Text); !ok || string(prompt) != "extract" {
		t.Fatalf("expected prompt part, got %#v", model.parts[1])
	}
}

func TestStagedImageIsReleased(t *testing.T) {
	model := &fakeModel{reply: "{}"}
	stager := &fakeStager{saved: make(map[string]string)}
	backend := newBackend(model, "gemini-2.0-flash", Staging{Stager: stager, Bucket: "medwise-staging", Prefix: "vision"}, nil)

	file, err := backend.Upload(context.Background(), staged(t))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.HasPrefix(file.URI, "gs://medwise-staging/vision/") || !strings.HasSuffix(file.URI, ".jpg") {
		t.Fatalf("unexpected uri %q", file.URI)
	}
	if stager.saved[file.Name] != "jpeg" {
		t.Fatalf("expected staged bytes under %q", file.Name)
	}
	if _, err := backend.Generate(context.Background(), file, "extract"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fd, ok := model.parts[0].(genai.FileData); !ok || fd.FileURI != file.URI {
		t.Fatalf("expected file data part, got %#v", model.parts[0])
	}
	if err := backend.Release(context.Background(), file); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if len(stager.removed) != 1 || stager.removed[0] != file.Name {
		t.Fatalf("expected staged object removed, got %v", stager.removed)
	}
}

func TestGenerateRetriesUnavailable(t *testing.T) {
	model := &fakeModel{
		reply: "{}",
		errs:  []error{status.Error(codes.Unavailable, "overloaded")},
	}
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
	backend := newBackend(model, "m", Staging{}, exec)

	if _, err := backend.Generate(context.Background(), domain.BackendFile{MIMEType: "image/png"}, "p"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if model.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", model.calls)
	}
}

func TestGenerateMarksExhaustedRetriesTemporary(t *testing.T) {
	model := &fakeModel{errs: []error{status.Error(codes.ResourceExhausted, "quota")}}
	backend := newBackend(model, "m", Staging{}, nil)

	_, err := backend.Generate(context.Background(), domain.BackendFile{}, "p")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	backend := newBackend(&fakeModel{reply: "   "}, "m", Staging{}, nil)
	if _, err := backend.Generate(context.Background(), domain.BackendFile{}, "p"); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestConfigureModelRequestsJSON(t *testing.T) {
	model := &genai.GenerativeModel{}
	configureModel(model)
	if model.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response MIME type, got %q", model.ResponseMIMEType)
	}
	if model.Temperature == nil || *model.Temperature != 0 {
		t.Fatalf("expected zero temperature, got %v", model.Temperature)
	}
}
