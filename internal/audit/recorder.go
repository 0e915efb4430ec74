package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/caris2020/AssuranceProject/internal/platform/metrics"
)

// Store persists audit events. Append-only; no update or delete.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every appended event, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder appends audit events as a best-effort side channel. A failure to
// append must never prevent the primary business mutation from succeeding, so
// Record logs failures and swallows them instead of returning an error.
type Recorder struct {
	store   Store
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures optional Recorder collaborators.
type Option func(*Recorder)

// WithSink mirrors every event to an external sink, also best-effort.
func WithSink(sink Sink) Option {
	return func(r *Recorder) { r.sink = sink }
}

// WithMetrics counts swallowed append failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(store Store, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{store: store, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one immutable event.
func (r *Recorder) Record(ctx context.Context, eventType EventType, actor, message string) {
	event := Event{
		ID:        uuid.New(),
		Type:      eventType,
		Actor:     actor,
		Message:   message,
		CreatedAt: time.Now(),
	}

	if err := r.store.Append(ctx, event); err != nil {
		if r.metrics != nil {
			r.metrics.AuditAppendFailures.Inc()
		}
		r.logger.ErrorContext(ctx, "audit append failed",
			"type", string(eventType),
			"actor", actor,
			"error", err.Error(),
		)
		return
	}

	if r.sink != nil {
		if err := r.sink.Publish(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "audit sink publish failed",
				"type", string(eventType),
				"error", err.Error(),
			)
		}
	}
}

// ListRecent returns the newest events for the admin dashboard.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return r.store.ListRecent(ctx, limit)
}
