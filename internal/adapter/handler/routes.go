package handler

import "net/http"

// Handlers groups everything Register mounts. Nil members are skipped.
type Handlers struct {
	Ticker   *TickerHandler
	Price    *PriceHandler
	Mode     *ModeHandler
	Health   *HealthHandler
	Analysis *AnalysisHandler
}

func Register(mux *http.ServeMux, h Handlers) {
	if h.Ticker != nil {
		mux.HandleFunc("GET /ticker", h.Ticker.GetTicker)
		mux.HandleFunc("GET /quotes", h.Ticker.GetQuotes)
		mux.HandleFunc("GET /quotes/{symbol}", h.Ticker.GetQuote)
	}
	if h.Price != nil {
		mux.HandleFunc("GET /prices/latest/{symbol}", h.Price.GetLatestPrice)
		mux.HandleFunc("GET /prices/highest/{symbol}", h.Price.GetHighestPrice)
		mux.HandleFunc("GET /prices/lowest/{symbol}", h.Price.GetLowestPrice)
		mux.HandleFunc("GET /prices/average/{symbol}", h.Price.GetAveragePrice)
	}
	if h.Mode != nil {
		mux.HandleFunc("GET /mode", h.Mode.GetMode)
		mux.HandleFunc("POST /mode/test", h.Mode.SwitchToTest)
		mux.HandleFunc("POST /mode/live", h.Mode.SwitchToLive)
	}
	if h.Health != nil {
		mux.HandleFunc("GET /health", h.Health.Check)
	}
	if h.Analysis != nil {
		mux.HandleFunc("POST /analyze", h.Analysis.Analyze)
		mux.HandleFunc("GET /analysis", h.Analysis.GetAnalysis)
		mux.HandleFunc("POST /chat", h.Analysis.Ask)
		mux.HandleFunc("GET /chat", h.Analysis.History)
		mux.HandleFunc("DELETE /chat", h.Analysis.ClearHistory)
	}
}
