package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

type OutboxRepo interface {
	WithTx(tx *gorm.DB) OutboxRepo
	Create(ctx context.Context, events []model.OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]model.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uint, at time.Time) error
	MarkFailed(ctx context.Context, id uint, reason string) error
}

type outboxRepoGorm struct {
	db *gorm.DB
}

var _ OutboxRepo = (*outboxRepoGorm)(nil)

func NewOutboxRepoGorm(db *gorm.DB) *outboxRepoGorm {
	return &outboxRepoGorm{
		db: db,
	}
}

func (r *outboxRepoGorm) WithTx(tx *gorm.DB) OutboxRepo {
	return &outboxRepoGorm{
		db: tx,
	}
}

func (r *outboxRepoGorm) Create(ctx context.Context, events []model.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

// ListPending returns unpublished events oldest first.
func (r *outboxRepoGorm) ListPending(ctx context.Context, limit int) ([]model.OutboxEvent, error) {
	return gorm.G[model.OutboxEvent](r.db).
		Where("published_at IS NULL").
		Order("id").
		Limit(limit).
		Find(ctx)
}

func (r *outboxRepoGorm) MarkPublished(ctx context.Context, id uint, at time.Time) error {
	_, err := gorm.G[model.OutboxEvent](r.db).Where("id = ?", id).Update(ctx, "published_at", at)
	return err
}

func (r *outboxRepoGorm) MarkFailed(ctx context.Context, id uint, reason string) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
