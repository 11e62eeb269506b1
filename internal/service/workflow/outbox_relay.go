package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
)

const outboxBatchSize = 100

type BodyPublisher interface {
	PublishBody(ctx context.Context, queueName string, body []byte) error
}

// OutboxRelay moves events committed with their reservation to the broker.
type OutboxRelay struct {
	repo      repository.OutboxRepo
	publisher BodyPublisher
	interval  time.Duration
	logger    *zap.Logger
}

func NewOutboxRelay(repo repository.OutboxRepo, publisher BodyPublisher, interval time.Duration, logger *zap.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		logger:    logger.Named("outbox_relay"),
	}
}

// Run relays pending events every interval until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if n, err := r.RelayOnce(ctx); err != nil {
			r.logger.Warn("outbox relay pass failed", zap.Int("published", n), zap.Error(err))
		} else if n > 0 {
			r.logger.Info("outbox events published", zap.Int("published", n))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes pending events oldest first and stops at the first
// failure so per-queue order is kept.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.repo.ListPending(ctx, outboxBatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, ev := range pending {
		if err := r.publisher.PublishBody(ctx, ev.Queue, ev.Payload); err != nil {
			if markErr := r.repo.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				r.logger.Error("failed to record outbox failure", zap.Uint("event_id", ev.ID), zap.Error(markErr))
			}
			return published, err
		}
		// published but not marked: the event goes out again next pass
		if err := r.repo.MarkPublished(ctx, ev.ID, time.Now().UTC()); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}
