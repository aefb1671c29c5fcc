package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
)

const workerQueueGroup = "analysis-workers"

// Queue carries image ids from the API to analysis workers.
type Queue struct {
	conn           *nats.Conn
	subject        string
	executor       *resilience.Executor
	handlerTimeout time.Duration
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	HandlerTimeout       time.Duration
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("medwise-backend"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		subject:        subject,
		executor:       options.ResilienceExecutor,
		handlerTimeout: options.HandlerTimeout,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Dispatch lets the queue stand in for the in-process tracker.
func (q *Queue) Dispatch(ctx context.Context, imageID string) error {
	return q.PublishAnalysisRequested(ctx, imageID)
}

func (q *Queue) PublishAnalysisRequested(ctx context.Context, imageID string) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(imageID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, resilience.OpNATSPublish, call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return dispatchError(err)
	}
	return nil
}

// SubscribeAnalysisRequested blocks until ctx is done, then drains in-flight messages.
func (q *Queue) SubscribeAnalysisRequested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, q.messageHandler(ctx, handler))
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return waitDrained(sub.IsValid, q.drainTimeout())
}

// drainTimeout bounds how long shutdown waits for drained messages to finish.
func (q *Queue) drainTimeout() time.Duration {
	if q.handlerTimeout > 0 {
		return q.handlerTimeout + 5*time.Second
	}
	return time.Minute
}

// waitDrained polls until the subscription has handed over every pending message.
func waitDrained(active func() bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for active() {
		if time.Now().After(deadline) {
			return fmt.Errorf("nats drain subscription: still active after %s", timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}

// messageHandler runs every delivered message, including those Drain hands over
// after ctx is canceled: core NATS never redelivers, so a skipped message would
// leave its image processing forever.
func (q *Queue) messageHandler(ctx context.Context, handler func(context.Context, string) error) nats.MsgHandler {
	return func(msg *nats.Msg) {
		imageID := strings.TrimSpace(string(msg.Data))
		if imageID == "" {
			slog.Warn("analysis_request_empty", "subject", msg.Subject)
			return
		}

		handlerCtx, cancel := q.handlerContext(ctx)
		defer cancel()
		if err := handler(handlerCtx, imageID); err != nil {
			slog.Error("analysis_request_failed", "image_id", imageID, "error", err)
		}
	}
}

// Handlers outlive shutdown so a drained message still finishes its terminal write.
func (q *Queue) handlerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if q.handlerTimeout > 0 {
		return context.WithTimeout(base, q.handlerTimeout)
	}
	return context.WithCancel(base)
}
