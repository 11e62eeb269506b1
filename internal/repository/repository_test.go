package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
}

// openTestDB migrates a fresh schema on TEST_DATABASE_DSN and skips when it
// is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := Open(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&model.Payment{}, &model.OutboxEvent{}, &model.Reservation{}, &model.Hotel{}))
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func TestHotelAndReservationRepo(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	hotels := NewHotelRepoGorm(db)
	hotel := &model.Hotel{Name: "Hotel Central", Location: "Recife", RoomsAvailable: 10, DailyRate: decimal.RequireFromString("175.50")}
	require.NoError(t, hotels.Create(ctx, hotel))
	require.NotZero(t, hotel.ID)

	got, err := hotels.GetByID(ctx, hotel.ID)
	require.NoError(t, err)
	assert.True(t, hotel.DailyRate.Equal(got.DailyRate))

	_, err = hotels.GetByID(ctx, hotel.ID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	reservations := NewReservationRepoGorm(db)
	r := &model.Reservation{
		HotelID:        hotel.ID,
		UserName:       "João",
		UserEmail:      "joao@example.com",
		CheckInDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate:   time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		StayLengthDays: 2,
		TotalAmount:    decimal.RequireFromString("351.00"),
	}
	require.NoError(t, reservations.Create(ctx, r))

	byHotel, err := reservations.GetByHotelID(ctx, hotel.ID)
	require.NoError(t, err)
	require.Len(t, byHotel, 1)
	assert.Equal(t, "351.00", byHotel[0].TotalAmount.StringFixed(2))
}

func TestPaymentRepo_OnePerReservation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	payments := NewPaymentRepoGorm(db)

	exists, err := payments.ExistsByReservationID(ctx, 42)
	require.NoError(t, err)
	assert.False(t, exists)

	first := &model.Payment{PaymentID: "11111111-1111-1111-1111-111111111111", ReservationID: 42, Amount: decimal.RequireFromString("351.00"), Status: model.PaymentApproved}
	require.NoError(t, payments.Create(ctx, first))

	second := &model.Payment{PaymentID: "22222222-2222-2222-2222-222222222222", ReservationID: 42, Amount: decimal.RequireFromString("351.00"), Status: model.PaymentApproved}
	assert.ErrorIs(t, payments.Create(ctx, second), ErrDuplicate)

	exists, err = payments.ExistsByReservationID(ctx, 42)
	require.NoError(t, err)
	assert.True(t, exists)

	all, err := payments.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOutboxRepo_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	outbox := NewOutboxRepoGorm(db)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return outbox.WithTx(tx).Create(ctx, []model.OutboxEvent{
			{ReservationID: 1, Queue: "pagamentos_queue", Payload: []byte(`{"reservation_id":1}`)},
			{ReservationID: 1, Queue: "notificacoes_queue", Payload: []byte(`{"reservation_id":1}`)},
		})
	}))

	pending, err := outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, outbox.MarkFailed(ctx, pending[0].ID, "broker down"))
	require.NoError(t, outbox.MarkPublished(ctx, pending[1].ID, time.Now().UTC()))

	pending, err = outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "broker down", pending[0].LastError)
}
