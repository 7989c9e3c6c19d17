package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"quotefeed/internal/application/usecase"
)

const defaultPeriod = 5 * time.Minute

type PriceHandler struct {
	useCase *usecase.PriceUseCase
	logger  *slog.Logger
}

func NewPriceHandler(useCase *usecase.PriceUseCase, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		useCase: useCase,
		logger:  logger,
	}
}

func (h *PriceHandler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	price, err := h.useCase.GetLatestPrice(r.Context(), symbol)
	if err != nil {
		h.logger.Error("failed to get latest price", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if price == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, price)
}

func (h *PriceHandler) GetHighestPrice(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	result, err := h.useCase.GetHighestPrice(r.Context(), symbol, period)
	if err != nil {
		h.logger.Error("failed to get highest price", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if result == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *PriceHandler) GetLowestPrice(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	result, err := h.useCase.GetLowestPrice(r.Context(), symbol, period)
	if err != nil {
		h.logger.Error("failed to get lowest price", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if result == nil {
		http.Error(w, "no data found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *PriceHandler) GetAveragePrice(w http.ResponseWriter, r *http.Request) {
	symbol := pathSymbol(r)
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	result, err := h.useCase.GetAveragePrice(r.Context(), symbol, period)
	if err != nil {
		h.logger.Error("failed to get average price", "error", err, "symbol", symbol)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":  symbol,
		"period":  period.String(),
		"average": result,
	})
}

func pathSymbol(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
}

// parsePeriod reads ?period=, defaulting to five minutes. A malformed or
// non-positive period is answered with 400.
func parsePeriod(w http.ResponseWriter, r *http.Request) (time.Duration, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return defaultPeriod, true
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		http.Error(w, "invalid period", http.StatusBadRequest)
		return 0, false
	}
	return d, true
}
