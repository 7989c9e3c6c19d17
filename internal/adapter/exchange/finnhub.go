package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// FinnhubExchange reads quotes from the Finnhub /quote endpoint.
type FinnhubExchange struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// finnhubQuote is the raw /quote payload. Fields are pointers so that a
// missing field can be told apart from a zero.
type finnhubQuote struct {
	C  *float64 `json:"c"`  // current price
	PC *float64 `json:"pc"` // previous close
	O  *float64 `json:"o"`  // open price of the day
	T  int64    `json:"t"`
}

func NewFinnhubExchange(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) port.QuoteSource {
	if baseURL == "" {
		baseURL = DefaultFinnhubURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FinnhubExchange{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(&http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			}),
		},
		log: log,
	}
}

func (f *FinnhubExchange) Name() string { return "finnhub" }

func (f *FinnhubExchange) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("token", f.apiKey)
	fullURL := fmt.Sprintf("%s/quote?%s", f.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("quote request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Quote{}, fmt.Errorf("quote request for %s returned status %d: %s", symbol, resp.StatusCode, truncate(strings.TrimSpace(string(body)), 100))
	}

	var raw finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return model.Quote{}, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}

	// Finnhub answers unknown or not-yet-traded symbols with all zeros.
	if raw.O == nil || *raw.O == 0 {
		return model.Quote{}, fmt.Errorf("%s: %w", symbol, model.ErrIncompleteQuote)
	}

	q := model.Quote{
		Symbol:    symbol,
		Open:      *raw.O,
		FetchedAt: time.Now().UTC(),
	}
	if raw.C != nil {
		q.Current = *raw.C
	}
	if raw.PC != nil {
		q.PreviousClose = *raw.PC
	}

	f.log.Debug("quote fetched", "symbol", symbol, "current", q.Current, "open", q.Open)
	return q, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
