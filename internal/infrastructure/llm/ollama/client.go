package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
)

// Client is an extraction backend for a local vision model served by Ollama.
// Images travel inline as base64, so Upload only loads the staged file.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Upload(_ context.Context, image domain.StagedImage) (domain.BackendFile, error) {
	data, err := os.ReadFile(image.Path)
	if err != nil {
		return domain.BackendFile{}, fmt.Errorf("read staged image: %w", err)
	}
	return domain.BackendFile{
		Name:     image.Filename,
		MIMEType: image.MIMEType,
		Data:     data,
	}, nil
}

func (c *Client) Generate(ctx context.Context, file domain.BackendFile, prompt string) (string, error) {
	request := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"images": []string{base64.StdEncoding.EncodeToString(file.Data)},
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": 0,
		},
	}

	text, err := c.generate(ctx, request)
	if err != nil {
		return "", classifyGenerateError("ollama generate", err)
	}
	return text, nil
}

// Release is a no-op; nothing is kept server side.
func (c *Client) Release(context.Context, domain.BackendFile) error {
	return nil
}

func (c *Client) generate(ctx context.Context, request map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", request, &response, "generate")
	}
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, resilience.OpOllamaGenerate, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
