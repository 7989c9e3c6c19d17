package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/internal/application/usecase"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/testutils"
)

func priceHandlers(cache *testutils.MockCache, storage *testutils.MockStorage) Handlers {
	return Handlers{Price: NewPriceHandler(usecase.NewPriceUseCase(storage, cache), discardLogger())}
}

func TestPriceHandler_Latest(t *testing.T) {
	cache := testutils.NewMockCache()
	cache.Latest["AAPL"] = model.Quote{Symbol: "AAPL", Current: 190, Open: 188}
	h := priceHandlers(cache, testutils.NewMockStorage())

	rec := serve(t, h, http.MethodGet, "/prices/latest/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var q model.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, 190.0, q.Current)

	rec = serve(t, h, http.MethodGet, "/prices/latest/MSFT", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPriceHandler_HighestLowestAverage(t *testing.T) {
	storage := testutils.NewMockStorage()
	now := time.Now().UTC()
	storage.Saved = []model.AggregatedQuote{
		{Symbol: "NVDA", Source: "finnhub", Timestamp: now, AveragePrice: 900, MinPrice: 880, MaxPrice: 920},
		{Symbol: "NVDA", Source: "finnhub", Timestamp: now, AveragePrice: 910, MinPrice: 870, MaxPrice: 915},
	}
	h := priceHandlers(testutils.NewMockCache(), storage)

	rec := serve(t, h, http.MethodGet, "/prices/highest/NVDA?period=1h", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var agg model.AggregatedQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agg))
	assert.Equal(t, 920.0, agg.MaxPrice)

	rec = serve(t, h, http.MethodGet, "/prices/lowest/NVDA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agg))
	assert.Equal(t, 870.0, agg.MinPrice)

	rec = serve(t, h, http.MethodGet, "/prices/average/NVDA?period=30m", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var avg map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &avg))
	assert.Equal(t, "NVDA", avg["symbol"])
	assert.Equal(t, "30m0s", avg["period"])
	assert.Equal(t, 905.0, avg["average"])

	rec = serve(t, h, http.MethodGet, "/prices/highest/AMD", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPriceHandler_InvalidPeriod(t *testing.T) {
	h := priceHandlers(testutils.NewMockCache(), testutils.NewMockStorage())

	for _, target := range []string{
		"/prices/highest/NVDA?period=soon",
		"/prices/lowest/NVDA?period=-5m",
		"/prices/average/NVDA?period=0s",
	} {
		rec := serve(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
