package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/internal/application/usecase"
)

type trackBody struct {
	Cycle     uint64 `json:"cycle"`
	FetchedAt string `json:"fetched_at"`
	Items     []struct {
		Symbol     string `json:"symbol"`
		Status     string `json:"status"`
		PriceText  string `json:"price_text"`
		ChangeText string `json:"change_text"`
		Direction  string `json:"direction"`
	} `json:"items"`
	Animation struct {
		From     string  `json:"from"`
		To       string  `json:"to"`
		Easing   string  `json:"easing"`
		Duration float64 `json:"duration_seconds"`
		Repeat   string  `json:"repeat"`
	} `json:"animation"`
}

func TestTickerHandler_GetTicker(t *testing.T) {
	feed := newFeed(t)
	h := Handlers{Ticker: NewTickerHandler(usecase.NewTickerUseCase(feed, 120*time.Second), discardLogger())}

	rec := serve(t, h, http.MethodGet, "/ticker", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body trackBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Cycle)
	assert.NotEmpty(t, body.FetchedAt)
	require.Len(t, body.Items, 4)

	assert.Equal(t, "AAPL", body.Items[0].Symbol)
	assert.Equal(t, "ok", body.Items[0].Status)
	assert.Equal(t, "101.00", body.Items[0].PriceText)
	assert.Equal(t, "+1.00%", body.Items[0].ChangeText)
	assert.Equal(t, "up", body.Items[0].Direction)

	assert.Equal(t, "MSFT", body.Items[1].Symbol)
	assert.Equal(t, "no_data", body.Items[1].Status)
	assert.Equal(t, "--", body.Items[1].PriceText)
	assert.Equal(t, body.Items[0], body.Items[2])
	assert.Equal(t, body.Items[1], body.Items[3])

	assert.Equal(t, "0%", body.Animation.From)
	assert.Equal(t, "-50%", body.Animation.To)
	assert.Equal(t, "linear", body.Animation.Easing)
	assert.Equal(t, 120.0, body.Animation.Duration)
	assert.Equal(t, "infinite", body.Animation.Repeat)
}

func TestTickerHandler_Quotes(t *testing.T) {
	feed := newFeed(t)
	h := Handlers{Ticker: NewTickerHandler(usecase.NewTickerUseCase(feed, time.Minute), discardLogger())}

	rec := serve(t, h, http.MethodGet, "/quotes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table struct {
		Cycle  uint64                    `json:"cycle"`
		Quotes map[string]map[string]any `json:"quotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Quotes, 1)
	assert.Contains(t, table.Quotes, "AAPL")

	rec = serve(t, h, http.MethodGet, "/quotes/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var quote map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, 101.0, quote["current"])
	assert.InDelta(t, 1.0, quote["percent_change"], 1e-9)

	rec = serve(t, h, http.MethodGet, "/quotes/MSFT", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h, http.MethodPost, "/quotes", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
