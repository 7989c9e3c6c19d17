package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/testutils"
)

func TestPriceUseCase(t *testing.T) {
	ctx := context.Background()
	cache := testutils.NewMockCache()
	storage := testutils.NewMockStorage()
	uc := NewPriceUseCase(storage, cache)

	latest, err := uc.GetLatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, cache.SetLatestQuote(ctx, model.Quote{Symbol: "AAPL", Current: 190, Open: 188}))
	latest, err = uc.GetLatestPrice(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 190.0, latest.Current)

	require.NoError(t, storage.SaveAggregatedQuotes(ctx, []model.AggregatedQuote{
		{Symbol: "AAPL", AveragePrice: 10, MinPrice: 8, MaxPrice: 12},
		{Symbol: "AAPL", AveragePrice: 20, MinPrice: 18, MaxPrice: 25},
	}))

	hi, err := uc.GetHighestPrice(ctx, "AAPL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 25.0, hi.MaxPrice)

	lo, err := uc.GetLowestPrice(ctx, "AAPL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 8.0, lo.MinPrice)

	avg, err := uc.GetAveragePrice(ctx, "AAPL", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 15.0, avg)
}
