package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ObjectStager holds images the model reads by URI.
type ObjectStager interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Remove(ctx context.Context, key string) error
}

// Staging points at the bucket the stager writes to. Zero value sends images inline.
type Staging struct {
	Stager ObjectStager
	Bucket string
	Prefix string
}

type Backend struct {
	model     contentGenerator
	modelName string
	staging   Staging
	executor  *resilience.Executor
}

func NewClient(ctx context.Context, projectID, region string) (*genai.Client, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("gemini: project id and region are required")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return client, nil
}

func New(client *genai.Client, modelName string, staging Staging, executor *resilience.Executor) *Backend {
	model := client.GenerativeModel(modelName)
	configureModel(model)
	return newBackend(model, modelName, staging, executor)
}

// configureModel asks for deterministic JSON so the reply parses on the first try.
func configureModel(model *genai.GenerativeModel) {
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}
}

func newBackend(model contentGenerator, modelName string, staging Staging, executor *resilience.Executor) *Backend {
	return &Backend{model: model, modelName: modelName, staging: staging, executor: executor}
}

func (b *Backend) Model() string {
	return b.modelName
}

func (b *Backend) Upload(ctx context.Context, image domain.StagedImage) (domain.BackendFile, error) {
	data, err := os.ReadFile(image.Path)
	if err != nil {
		return domain.BackendFile{}, fmt.Errorf("read staged image: %w", err)
	}
	file := domain.BackendFile{Name: image.Filename, MIMEType: image.MIMEType}
	if b.staging.Stager == nil {
		file.Data = data
		return file, nil
	}

	key := path.Join(b.staging.Prefix, uuid.NewString()+strings.ToLower(filepath.Ext(image.Filename)))
	if err := b.staging.Stager.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return domain.BackendFile{}, fmt.Errorf("stage image for model: %w", err)
	}
	file.Name = key
	file.URI = "gs://" + b.staging.Bucket + "/" + key
	return file, nil
}

func (b *Backend) Generate(ctx context.Context, file domain.BackendFile, prompt string) (string, error) {
	var image genai.Part
	if file.URI != "" {
		image = genai.FileData{MIMEType: file.MIMEType, FileURI: file.URI}
	} else {
		image = genai.Blob{MIMEType: file.MIMEType, Data: file.Data}
	}

	call := func(callCtx context.Context) (*genai.GenerateContentResponse, error) {
		return b.model.GenerateContent(callCtx, image, genai.Text(prompt))
	}
	var (
		resp *genai.GenerateContentResponse
		err  error
	)
	if b.executor != nil {
		resp, err = resilience.Call(ctx, b.executor, resilience.OpGeminiGenerate, call, classifyGeminiError)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("gemini generate", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}

// Release drops the staged object, if any.
func (b *Backend) Release(ctx context.Context, file domain.BackendFile) error {
	if file.URI == "" || b.staging.Stager == nil {
		return nil
	}
	return b.staging.Stager.Remove(ctx, file.Name)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}
