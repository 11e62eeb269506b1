package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/model"
	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

// HotelLookup answers whether a hotel exists and what it charges per day.
type HotelLookup interface {
	GetHotel(ctx context.Context, id uint) (*model.Hotel, error)
}

type HotelClient struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ HotelLookup = (*HotelClient)(nil)

// errCallerGone marks a fetch cut short by the caller's own context.
type errCallerGone struct{ err error }

func (e errCallerGone) Error() string { return e.err.Error() }
func (e errCallerGone) Unwrap() error { return e.err }

func NewHotelClient(baseURL string, timeout time.Duration, log *zap.Logger) *HotelClient {
	log = log.Named("hotel_client")
	settings := gobreaker.Settings{
		Name:        "hotel-service",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// an unknown hotel is an answer, not an outage
		IsSuccessful: func(err error) bool {
			var gone errCallerGone
			return err == nil || errors.Is(err, service.ErrNotFound) || errors.As(err, &gone)
		},
	}
	return &HotelClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log,
	}
}

// GetHotel fetches the hotel from the hotel service. It returns
// service.ErrNotFound when the service answers 404 and
// service.ErrServiceUnavailable for anything that prevents an answer.
//
// A request abandoned by the caller is returned as ctx.Err() and is not
// counted against the hotel service.
func (c *HotelClient) GetHotel(ctx context.Context, id uint) (*model.Hotel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		hotel, err := c.fetch(ctx, id)
		if err != nil && ctx.Err() != nil {
			return nil, errCallerGone{ctx.Err()}
		}
		return hotel, err
	})
	if err != nil {
		var gone errCallerGone
		if errors.As(err, &gone) {
			return nil, gone.err
		}
		if errors.Is(err, service.ErrNotFound) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", service.ErrServiceUnavailable, err)
		}
		return nil, err
	}
	return res.(*model.Hotel), nil
}

func (c *HotelClient) fetch(ctx context.Context, id uint) (*model.Hotel, error) {
	url := fmt.Sprintf("%s/hoteis/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: hotel service unreachable: %w", service.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("hotel %d: %w", id, service.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: hotel service returned %d", service.ErrServiceUnavailable, resp.StatusCode)
	}

	var hotel model.Hotel
	if err := json.NewDecoder(resp.Body).Decode(&hotel); err != nil {
		return nil, fmt.Errorf("%w: decode hotel: %w", service.ErrServiceUnavailable, err)
	}
	if !hotel.DailyRate.IsPositive() {
		return nil, fmt.Errorf("%w: hotel %d has daily rate %s", service.ErrServiceUnavailable, id, hotel.DailyRate.String())
	}
	return &hotel, nil
}
