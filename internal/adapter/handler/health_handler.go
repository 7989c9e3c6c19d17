package handler

import (
	"log/slog"
	"net/http"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

// FeedStatus is the part of the quote feed the health check reports on.
type FeedStatus interface {
	Running() bool
	Table() *model.QuoteTable
	Symbols() []string
	SourceName() string
}

type HealthHandler struct {
	storage port.StoragePort
	cache   port.CachePort
	feed    FeedStatus
	logger  *slog.Logger
}

func NewHealthHandler(storage port.StoragePort, cache port.CachePort, feed FeedStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		cache:   cache,
		feed:    feed,
		logger:  logger,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "healthy"
	redisStatus := "healthy"
	feedStatus := "running"
	overallStatus := "healthy"

	if err := h.storage.Ping(r.Context()); err != nil {
		dbStatus = "unhealthy"
		overallStatus = "degraded"
		h.logger.Warn("database health check failed", "error", err)
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		redisStatus = "unhealthy"
		overallStatus = "degraded"
		h.logger.Warn("redis health check failed", "error", err)
	}

	if !h.feed.Running() {
		feedStatus = "stopped"
		overallStatus = "degraded"
	}

	table := h.feed.Table()
	response := map[string]any{
		"status": overallStatus,
		"checks": map[string]string{
			"database": dbStatus,
			"redis":    redisStatus,
			"feed":     feedStatus,
		},
		"feed": map[string]any{
			"source":  h.feed.SourceName(),
			"cycle":   table.Cycle,
			"symbols": len(h.feed.Symbols()),
			"quoted":  table.Len(),
		},
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, response)
}
