package workflow

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/internal/mail"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

type fakeHotels struct {
	hotels map[uint]*model.Hotel
	err    error
}

func (f *fakeHotels) GetHotel(_ context.Context, id uint) (*model.Hotel, error) {
	if f.err != nil {
		return nil, f.err
	}
	h, ok := f.hotels[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return h, nil
}

type memReservationRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   []model.Reservation
}

func (r *memReservationRepo) WithTx(*gorm.DB) repository.ReservationRepo { return r }

func (r *memReservationRepo) Create(_ context.Context, res *model.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	res.ID = r.nextID
	res.CreatedAt = time.Now()
	r.rows = append(r.rows, *res)
	return nil
}

func (r *memReservationRepo) GetByID(_ context.Context, id uint) (*model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			res := r.rows[i]
			return &res, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memReservationRepo) GetByHotelID(_ context.Context, hotelID uint) ([]model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Reservation
	for _, res := range r.rows {
		if res.HotelID == hotelID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memReservationRepo) ListAll(context.Context) ([]model.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Reservation(nil), r.rows...), nil
}

func (r *memReservationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// memPaymentRepo enforces the unique reservation_id like the real table.
type memPaymentRepo struct {
	mu   sync.Mutex
	rows map[uint]model.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{rows: make(map[uint]model.Payment)}
}

func (r *memPaymentRepo) WithTx(*gorm.DB) repository.PaymentRepo { return r }

func (r *memPaymentRepo) Create(_ context.Context, p *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ReservationID]; ok {
		return repository.ErrDuplicate
	}
	r.rows[p.ReservationID] = *p
	return nil
}

func (r *memPaymentRepo) ExistsByReservationID(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[id]
	return ok, nil
}

func (r *memPaymentRepo) GetByReservationID(_ context.Context, id uint) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memPaymentRepo) ListAll(context.Context) ([]model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Payment, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	return out, nil
}

func (r *memPaymentRepo) snapshot() []model.Payment {
	out, _ := r.ListAll(context.Background())
	return out
}

type memOutboxRepo struct {
	mu   sync.Mutex
	rows []model.OutboxEvent
}

func (r *memOutboxRepo) WithTx(*gorm.DB) repository.OutboxRepo { return r }

func (r *memOutboxRepo) Create(_ context.Context, events []model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range events {
		ev.ID = uint(len(r.rows) + 1)
		r.rows = append(r.rows, ev)
	}
	return nil
}

func (r *memOutboxRepo) ListPending(_ context.Context, limit int) ([]model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OutboxEvent
	for _, ev := range r.rows {
		if ev.PublishedAt == nil && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memOutboxRepo) MarkPublished(_ context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[id-1].PublishedAt = &at
	return nil
}

func (r *memOutboxRepo) MarkFailed(_ context.Context, id uint, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[id-1].Attempts++
	r.rows[id-1].LastError = reason
	return nil
}

func (r *memOutboxRepo) get(id uint) model.OutboxEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id-1]
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type memMarkers struct {
	mu   sync.Mutex
	sent map[uint]bool
}

func newMemMarkers() *memMarkers {
	return &memMarkers{sent: make(map[uint]bool)}
}

func (m *memMarkers) WasNotified(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[id], nil
}

func (m *memMarkers) MarkNotified(_ context.Context, id uint, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[id] = true
	return nil
}
