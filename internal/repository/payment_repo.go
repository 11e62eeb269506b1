package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

type PaymentRepo interface {
	WithTx(tx *gorm.DB) PaymentRepo
	Create(ctx context.Context, payment *model.Payment) error
	ExistsByReservationID(ctx context.Context, reservationID uint) (bool, error)
	GetByReservationID(ctx context.Context, reservationID uint) (*model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
}

type paymentRepoGorm struct {
	db *gorm.DB
}

var _ PaymentRepo = (*paymentRepoGorm)(nil)

func NewPaymentRepoGorm(db *gorm.DB) *paymentRepoGorm {
	return &paymentRepoGorm{
		db: db,
	}
}

func (r *paymentRepoGorm) WithTx(tx *gorm.DB) PaymentRepo {
	return &paymentRepoGorm{
		db: tx,
	}
}

// Create inserts the payment. A second payment for the same reservation
// fails with ErrDuplicate.
func (r *paymentRepoGorm) Create(ctx context.Context, payment *model.Payment) error {
	if err := gorm.G[model.Payment](r.db).Create(ctx, payment); err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *paymentRepoGorm) ExistsByReservationID(ctx context.Context, reservationID uint) (bool, error) {
	n, err := gorm.G[model.Payment](r.db).Where("reservation_id = ?", reservationID).Count(ctx, "*")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *paymentRepoGorm) GetByReservationID(ctx context.Context, reservationID uint) (*model.Payment, error) {
	payment, err := gorm.G[model.Payment](r.db).Where("reservation_id = ?", reservationID).First(ctx)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepoGorm) ListAll(ctx context.Context) ([]model.Payment, error) {
	return gorm.G[model.Payment](r.db).Order("id").Find(ctx)
}

var ErrDuplicate = errors.New("record already exists")

// IsUniqueViolation recognizes duplicate keys both as translated by gorm and
// as raw postgres errors.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
