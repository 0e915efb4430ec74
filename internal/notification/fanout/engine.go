// Package fanout replicates one logical domain event into one notification
// row per eligible recipient. Delivery is best-effort and at-most-once: a
// failure for one recipient is logged and never aborts the others, and no
// failure ever reaches the mutation that triggered the fan-out.
package fanout

import (
	"context"
	"encoding/json"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	notifmodels "github.com/caris2020/AssuranceProject/internal/notification/models"
	"github.com/caris2020/AssuranceProject/internal/platform/metrics"
	usermodels "github.com/caris2020/AssuranceProject/internal/users/models"
)

var tracer = otel.Tracer("github.com/caris2020/AssuranceProject/internal/notification/fanout")

// Directory lists the users recipient policies filter over.
type Directory interface {
	ListAll(ctx context.Context) ([]*usermodels.User, error)
}

// Notifier creates one notification row. Implemented by the notification
// service so cache invalidation stays in one place.
type Notifier interface {
	Create(ctx context.Context, n *notifmodels.Notification) error
}

// Payload carries the five well-known notification fields plus arbitrary
// extension pairs, which are serialized into the notification metadata.
type Payload struct {
	Title   string
	Message string
	Type    notifmodels.Type
	Action  string
	URL     string
	Extra   map[string]any
}

// Engine computes recipient sets and writes one notification per recipient
// through a bounded worker pool.
type Engine struct {
	directory Directory
	notifier  Notifier
	logger    *slog.Logger
	metrics   *metrics.Metrics
	workers   int
}

func NewEngine(directory Directory, notifier Notifier, logger *slog.Logger, m *metrics.Metrics, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		directory: directory,
		notifier:  notifier,
		logger:    logger,
		metrics:   m,
		workers:   workers,
	}
}

// Deliver fans the payload out to every recipient the policy selects.
// It returns the number of notifications successfully created. Per-recipient
// failures are logged and counted, never propagated; callers treat the whole
// fan-out as advisory.
func (e *Engine) Deliver(ctx context.Context, policy Policy, payload Payload) int {
	ctx, span := tracer.Start(ctx, "fanout.Deliver")
	defer span.End()
	span.SetAttributes(attribute.String("fanout.policy", policy.Name()))

	users, err := e.directory.ListAll(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "fan-out aborted: directory unavailable",
			"policy", policy.Name(),
			"error", err.Error(),
		)
		return 0
	}

	recipients := policy.Select(users)
	span.SetAttributes(attribute.Int("fanout.recipients", len(recipients)))

	metadata := encodeMetadata(ctx, e.logger, payload.Extra)

	var delivered int
	results := make(chan bool, len(recipients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, recipient := range recipients {
		g.Go(func() error {
			n := &notifmodels.Notification{
				UserID:   recipient.Username,
				Title:    payload.Title,
				Message:  payload.Message,
				Type:     payload.Type,
				Action:   payload.Action,
				URL:      payload.URL,
				Metadata: metadata,
			}
			if err := e.notifier.Create(gctx, n); err != nil {
				if e.metrics != nil {
					e.metrics.NotificationFailures.Inc()
				}
				e.logger.ErrorContext(gctx, "notification delivery failed",
					"recipient", recipient.Username,
					"policy", policy.Name(),
					"error", err.Error(),
				)
				results <- false
				return nil
			}
			if e.metrics != nil {
				e.metrics.NotificationsDelivered.Inc()
			}
			results <- true
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	for ok := range results {
		if ok {
			delivered++
		}
	}

	e.logger.InfoContext(ctx, "fan-out complete",
		"policy", policy.Name(),
		"recipients", len(recipients),
		"delivered", delivered,
	)
	return delivered
}

// encodeMetadata serializes the extension pairs; a marshal failure drops the
// metadata but never the notification.
func encodeMetadata(ctx context.Context, logger *slog.Logger, extra map[string]any) string {
	if len(extra) == 0 {
		return ""
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		logger.WarnContext(ctx, "notification metadata dropped", "error", err.Error())
		return ""
	}
	return string(raw)
}
