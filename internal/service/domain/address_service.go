package domain

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Thiagobarros01/hotel-reservation/internal/cache"
	"github.com/Thiagobarros01/hotel-reservation/internal/client"
)

const addressCacheTTL = 24 * time.Hour

// AddressCache is the subset of the redis cache used for ceps.
type AddressCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type AddressService interface {
	Lookup(ctx context.Context, cep string) (*client.Address, error)
}

type addressService struct {
	lookup client.AddressLookup
	cache  AddressCache
	logger *zap.Logger
}

var _ AddressService = (*addressService)(nil)

// NewAddressService builds the cep lookup. addrCache may be nil.
func NewAddressService(lookup client.AddressLookup, addrCache AddressCache, logger *zap.Logger) *addressService {
	return &addressService{
		lookup: lookup,
		cache:  addrCache,
		logger: logger.Named("address_service"),
	}
}

func (s *addressService) Lookup(ctx context.Context, cep string) (*client.Address, error) {
	normalized, err := client.NormalizeCEP(cep)
	if err != nil {
		return nil, err
	}
	key := cache.MakeAddressKey(normalized)

	if s.cache != nil {
		var cached client.Address
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("address cache read failed", zap.String("cep", normalized), zap.Error(err))
		}
	}

	addr, err := s.lookup.Lookup(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, addr, addressCacheTTL); err != nil {
			s.logger.Warn("address cache write failed", zap.String("cep", normalized), zap.Error(err))
		}
	}
	return addr, nil
}
