package port

import (
	"context"
	"time"

	"quotefeed/internal/domain/model"
)

type CachePort interface {
	SetLatestQuote(ctx context.Context, quote model.Quote) error
	GetLatestQuote(ctx context.Context, symbol string) (*model.Quote, error)
	AddQuoteToWindow(ctx context.Context, quote model.Quote) error
	GetQuotesInWindow(ctx context.Context, symbol string) ([]model.Quote, error)
	DeleteOldQuotes(ctx context.Context, before time.Time) error
	Ping(ctx context.Context) error
	Close() error
}
