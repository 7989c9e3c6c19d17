package usecase

import (
	"context"
	"fmt"
	"time"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

// PriceUseCase answers history questions from the archive. Unlike the ticker
// it may return last-known-good data.
type PriceUseCase struct {
	storage port.StoragePort
	cache   port.CachePort
}

func NewPriceUseCase(storage port.StoragePort, cache port.CachePort) *PriceUseCase {
	return &PriceUseCase{
		storage: storage,
		cache:   cache,
	}
}

// GetLatestPrice returns the last archived quote, or nil when the symbol has
// not been seen within the cache TTL.
func (uc *PriceUseCase) GetLatestPrice(ctx context.Context, symbol string) (*model.Quote, error) {
	q, err := uc.cache.GetLatestQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest quote for %s: %w", symbol, err)
	}
	return q, nil
}

func (uc *PriceUseCase) GetHighestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	return uc.storage.GetHighestPrice(ctx, symbol, period)
}

func (uc *PriceUseCase) GetLowestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	return uc.storage.GetLowestPrice(ctx, symbol, period)
}

func (uc *PriceUseCase) GetAveragePrice(ctx context.Context, symbol string, period time.Duration) (float64, error) {
	return uc.storage.GetAveragePrice(ctx, symbol, period)
}
