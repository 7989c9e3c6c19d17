package port

import (
	"context"
	"time"

	"quotefeed/internal/domain/model"
)

type StoragePort interface {
	SaveAggregatedQuotes(ctx context.Context, quotes []model.AggregatedQuote) error
	GetHighestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error)
	GetLowestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error)
	GetAveragePrice(ctx context.Context, symbol string, period time.Duration) (float64, error)
	Ping(ctx context.Context) error
	Close() error
}
