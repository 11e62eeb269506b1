package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/config"
	"github.com/Thiagobarros01/hotel-reservation/internal/app"
	"github.com/Thiagobarros01/hotel-reservation/internal/client"
	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
	"github.com/Thiagobarros01/hotel-reservation/internal/service/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockHotelService struct{ mock.Mock }

func (m *mockHotelService) CreateHotel(ctx context.Context, h *model.Hotel) error {
	return m.Called(ctx, h).Error(0)
}

func (m *mockHotelService) GetHotelByID(ctx context.Context, id uint) (*model.Hotel, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*model.Hotel)
	return h, args.Error(1)
}

func (m *mockHotelService) GetAllHotels(ctx context.Context) ([]model.Hotel, error) {
	args := m.Called(ctx)
	hs, _ := args.Get(0).([]model.Hotel)
	return hs, args.Error(1)
}

type mockReserver struct{ mock.Mock }

func (m *mockReserver) Reserve(ctx context.Context, in domain.ReservationInput) (*model.Reservation, error) {
	args := m.Called(ctx, in)
	r, _ := args.Get(0).(*model.Reservation)
	return r, args.Error(1)
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) Process(ctx context.Context, req domain.PaymentRequest) (*model.Payment, bool, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Bool(1), args.Error(2)
}

func (m *mockPaymentService) GetByReservationID(ctx context.Context, id uint) (*model.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *mockPaymentService) ListAll(ctx context.Context) ([]model.Payment, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]model.Payment)
	return ps, args.Error(1)
}

type stubAddresses struct {
	addr *client.Address
	err  error
}

func (s stubAddresses) Lookup(context.Context, string) (*client.Address, error) {
	return s.addr, s.err
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const reserveBody = `{
	"hotel_id": 7,
	"user_name": "João",
	"user_email": "joao@example.com",
	"cep": "01001-000",
	"check_in_date": "2025-03-10",
	"check_out_date": "2025-03-12"
}`

func reservationRouter(reserver Reserver) *gin.Engine {
	r := gin.New()
	h := NewReservationHandler(reserver, nil)
	r.POST("/reservas", h.HandleReserve)
	return r
}

func TestReservationHandler_Created(t *testing.T) {
	reserver := &mockReserver{}
	reserver.On("Reserve", mock.Anything, domain.ReservationInput{
		HotelID:      7,
		UserName:     "João",
		UserEmail:    "joao@example.com",
		CEP:          "01001-000",
		CheckInDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
	}).Return(&model.Reservation{ID: 42, HotelID: 7, StayLengthDays: 2, TotalAmount: decimal.RequireFromString("351.00")}, nil)

	w := do(reservationRouter(reserver), http.MethodPost, "/reservas", reserveBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got model.Reservation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint(42), got.ID)
	assert.True(t, decimal.RequireFromString("351").Equal(got.TotalAmount))
}

func TestReservationHandler_ErrorMapping(t *testing.T) {
	cases := map[error]int{
		service.ErrNotFound:           http.StatusNotFound,
		service.ErrServiceUnavailable: http.StatusServiceUnavailable,
		service.ErrInvalidInput:       http.StatusBadRequest,
		errors.New("db down"):         http.StatusInternalServerError,
	}
	for err, code := range cases {
		reserver := &mockReserver{}
		reserver.On("Reserve", mock.Anything, mock.Anything).Return(nil, err)
		w := do(reservationRouter(reserver), http.MethodPost, "/reservas", reserveBody)
		assert.Equal(t, code, w.Code, err.Error())
	}
}

func TestReservationHandler_RejectsBadRequests(t *testing.T) {
	reserver := &mockReserver{}
	r := reservationRouter(reserver)

	bodies := []string{
		`{`,
		`{"hotel_id": 7, "user_name": "A", "user_email": "not-an-email", "check_in_date": "2025-03-10", "check_out_date": "2025-03-12"}`,
		`{"user_name": "A", "user_email": "a@b.com", "check_in_date": "2025-03-10", "check_out_date": "2025-03-12"}`,
		`{"hotel_id": 7, "user_name": "A", "user_email": "a@b.com", "check_in_date": "10/03/2025", "check_out_date": "2025-03-12"}`,
	}
	for _, body := range bodies {
		w := do(r, http.MethodPost, "/reservas", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	reserver.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
}

func hotelApp(hotels domain.HotelService, payments domain.PaymentService) *app.App {
	return &app.App{
		Config:         &config.Config{Service: "all"},
		HotelService:   hotels,
		PaymentService: payments,
		AddressService: stubAddresses{addr: &client.Address{CEP: "01001-000", City: "São Paulo", State: "SP"}},
	}
}

func TestRouter_Hotels(t *testing.T) {
	hotels := &mockHotelService{}
	hotels.On("CreateHotel", mock.Anything, mock.MatchedBy(func(h *model.Hotel) bool {
		return h.Name == "Hotel Central" && h.DailyRate.Equal(decimal.RequireFromString("175.50"))
	})).Run(func(args mock.Arguments) { args.Get(1).(*model.Hotel).ID = 7 }).Return(nil)
	hotels.On("GetHotelByID", mock.Anything, uint(7)).Return(&model.Hotel{ID: 7, Name: "Hotel Central"}, nil)
	hotels.On("GetHotelByID", mock.Anything, uint(8)).Return(nil, service.ErrNotFound)
	hotels.On("GetAllHotels", mock.Anything).Return(nil, nil)

	r := NewRouter(hotelApp(hotels, &mockPaymentService{}), zap.NewNop())

	w := do(r, http.MethodPost, "/hoteis", `{"name":"Hotel Central","location":"Recife","rooms_available":10,"daily_rate":"175.50"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":7`)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/hoteis/7", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/hoteis/8", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/hoteis/abc", "").Code)

	w = do(r, http.MethodGet, "/hoteis", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouter_Payments(t *testing.T) {
	payments := &mockPaymentService{}
	payments.On("GetByReservationID", mock.Anything, uint(42)).
		Return(&model.Payment{PaymentID: "p-1", ReservationID: 42, Status: model.PaymentApproved, Amount: decimal.RequireFromString("351")}, nil)
	payments.On("GetByReservationID", mock.Anything, uint(43)).Return(nil, service.ErrNotFound)

	r := NewRouter(hotelApp(&mockHotelService{}, payments), zap.NewNop())

	w := do(r, http.MethodGet, "/pagamentos/reserva/42", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Approved"`)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/pagamentos/reserva/43", "").Code)
}

func TestRouter_AddressAndHealth(t *testing.T) {
	r := NewRouter(hotelApp(&mockHotelService{}, &mockPaymentService{}), zap.NewNop())

	w := do(r, http.MethodGet, "/enderecos/01001000", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"localidade":"São Paulo"`)

	w = do(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"all","consumers":{}}`, w.Body.String())

	// reservation routes are only registered when the role runs
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/reservas", reserveBody).Code)
}
