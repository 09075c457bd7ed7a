package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maplecase_outbox_published_total",
		Help: "Outbox entries delivered to the broker.",
	})
	drainFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maplecase_outbox_drain_failures_total",
		Help: "Drain cycles aborted by a store or publish error.",
	})
)

// Publisher is the broker side of the worker. *producer.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Worker drains the outbox to the broker. One instance runs per node;
// delivery is at least once, ordered per case by outbox ID.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewWorker builds a worker polling at the given interval.
func NewWorker(store Store, publisher Publisher, logger *slog.Logger, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled. Publish failures leave the
// row unpublished and stop the batch so order is preserved.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				drainFailures.Inc()
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch of unpublished entries.
func (w *Worker) Drain(ctx context.Context) error {
	entries, err := w.store.ListUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := w.publisher.Publish(ctx, entry.CaseID.String(), entry.Payload); err != nil {
			return err
		}
		if err := w.store.MarkPublished(ctx, entry.ID, time.Now().UTC()); err != nil {
			return err
		}
		eventsPublished.Inc()
		w.logger.InfoContext(ctx, "case event published",
			"outbox_id", entry.ID,
			"event_id", entry.EventID,
			"event_type", entry.Type,
			"case_id", entry.CaseID,
		)
	}
	return nil
}
