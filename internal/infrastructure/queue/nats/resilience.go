package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
)

// Errors a reconnecting client reports while the broker is briefly unreachable.
var transientPublishErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
	nats.ErrReconnectBufExceeded,
}

// Errors that no retry can fix: the request itself is malformed.
var rejectedPublishErrors = []error{
	nats.ErrBadSubject,
	nats.ErrMaxPayload,
	context.Canceled,
	context.DeadlineExceeded,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil, matchesAny(err, rejectedPublishErrors):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), matchesAny(err, transientPublishErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// dispatchError gives every publish failure a domain kind: brokers that may
// come back are Temporary, anything else is an Upstream failure.
func dispatchError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrUpstream) {
		return err
	}
	if resilience.IsCircuitOpen(err) || classifyPublishError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "dispatch analysis", err)
	}
	return domain.WrapError(domain.ErrUpstream, "dispatch analysis", err)
}
