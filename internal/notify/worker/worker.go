package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"casefile/internal/notify"
)

// Store is the slice of the outbox the worker needs.
type Store interface {
	FetchUnpublished(ctx context.Context, limit int) ([]notify.Notification, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Publisher ships a batch of notifications downstream.
type Publisher interface {
	Publish(ctx context.Context, notifications []notify.Notification) error
}

// Worker polls the outbox and publishes committed notifications. Publish
// failures leave rows unpublished; the next tick retries, so delivery is
// at-least-once and consumers must dedupe on notification ID.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func New(store Store, publisher Publisher, logger *slog.Logger, interval time.Duration) *Worker {
	return &Worker{
		store:     store,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batchSize: 100,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.tick(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox publish failed", "error", err)
			}
		}
	}
}

func (w *Worker) tick(ctx context.Context) error {
	batch, err := w.store.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	if err := w.publisher.Publish(ctx, batch); err != nil {
		return err
	}
	ids := make([]uuid.UUID, len(batch))
	for i, n := range batch {
		ids[i] = n.ID
	}
	return w.store.MarkPublished(ctx, ids)
}
