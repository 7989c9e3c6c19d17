package handler

import (
	"log/slog"
	"net/http"

	"quotefeed/internal/application/usecase"
)

// TickerHandler serves the marquee render model and the published quote table.
type TickerHandler struct {
	useCase *usecase.TickerUseCase
	logger  *slog.Logger
}

func NewTickerHandler(useCase *usecase.TickerUseCase, logger *slog.Logger) *TickerHandler {
	return &TickerHandler{useCase: useCase, logger: logger}
}

func (h *TickerHandler) GetTicker(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.useCase.Track())
}

func (h *TickerHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.useCase.Table())
}

func (h *TickerHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	q, ok := h.useCase.Quote(symbol)
	if !ok {
		http.Error(w, "no quote for "+symbol, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":         q.Symbol,
		"current":        q.Current,
		"previous_close": q.PreviousClose,
		"open":           q.Open,
		"fetched_at":     q.FetchedAt,
		"percent_change": q.PercentChange(),
		"direction":      q.Direction(),
	})
}
