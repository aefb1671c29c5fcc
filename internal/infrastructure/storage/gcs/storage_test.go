package gcs

import (
	"errors"
	"net/http"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/medwise/medwise-backend/internal/core/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"missing", storage.ErrObjectNotExist, domain.ErrNotFound},
		{"precondition", &googleapi.Error{Code: http.StatusPreconditionFailed}, domain.ErrConflict},
		{"throttled", &googleapi.Error{Code: http.StatusTooManyRequests}, domain.ErrTemporary},
		{"unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, domain.ErrTemporary},
	}
	for _, tc := range cases {
		if err := classify("op", "key", tc.err); !domain.IsKind(err, tc.kind) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.kind, err)
		}
	}

	err := classify("op", "key", &googleapi.Error{Code: http.StatusForbidden})
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected unclassified passthrough, got %v", err)
	}
}
