package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx answer from the Ollama server.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	body := strings.TrimSpace(e.Body)
	switch {
	case e.StatusCode == http.StatusNotFound && body != "":
		// Ollama answers 404 when the vision model has not been pulled.
		return fmt.Sprintf("ollama %s: model unavailable: %s", e.Operation, body)
	case body == "":
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	default:
		return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, body)
	}
}

var (
	retryAndRecord = resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	recordOnly     = resilience.ErrorClassification{RecordFailure: true}
	ignore         = resilience.ErrorClassification{}
)

// classifyOllamaError decides retries and breaker accounting for one generate call.
// A model that is still loading answers 503. Bad requests never count against the breaker.
func classifyOllamaError(err error) resilience.ErrorClassification {
	if err == nil {
		return ignore
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ignore
	}
	if resilience.IsCircuitOpen(err) {
		return retryAndRecord
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case isRetryableHTTPStatus(statusErr.StatusCode):
			return retryAndRecord
		case statusErr.StatusCode == http.StatusNotFound:
			return recordOnly
		default:
			return ignore
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retryAndRecord
	}
	return recordOnly
}

// classifyGenerateError turns a failed call into a domain error kind: transient
// failures become ErrTemporary, everything the server rejected becomes ErrUpstream.
func classifyGenerateError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrUpstream) {
		return err
	}
	if class := classifyOllamaError(err); class.Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return domain.WrapError(domain.ErrUpstream, operation, err)
	}
	return err
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
