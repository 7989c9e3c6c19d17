package port

import (
	"context"

	"quotefeed/internal/domain/model"
)

// QuoteSource fetches the latest quote of a single symbol. Implementations
// return model.ErrIncompleteQuote when the record has no opening price.
type QuoteSource interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
}
