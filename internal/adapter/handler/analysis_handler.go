package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"quotefeed/internal/application/usecase"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

type AnalysisHandler struct {
	useCase *usecase.AnalysisUseCase
	logger  *slog.Logger
}

func NewAnalysisHandler(useCase *usecase.AnalysisUseCase, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{useCase: useCase, logger: logger}
}

type analysisResponse struct {
	Analysis  model.Analysis  `json:"analysis"`
	Dashboard model.Dashboard `json:"dashboard"`
}

func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	analysis, err := h.useCase.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, "analyze portfolio", err)
		return
	}

	writeJSON(w, http.StatusOK, analysisResponse{Analysis: analysis, Dashboard: analysis.Dashboard()})
}

func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.useCase.LastAnalysis(r.Context())
	if err != nil {
		h.fail(w, "load analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Analysis: analysis, Dashboard: analysis.Dashboard()})
}

type chatRequest struct {
	Question string `json:"question"`
}

func (h *AnalysisHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	answer, err := h.useCase.Ask(r.Context(), req.Question)
	if err != nil {
		h.fail(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.useCase.History(r.Context())
	if err != nil {
		h.fail(w, "chat history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": history})
}

func (h *AnalysisHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.useCase.ClearHistory(r.Context()); err != nil {
		h.fail(w, "clear chat history", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps use case errors to status codes. Only analysis backend failures
// are reported as a bad gateway; anything else unrecognised, such as the
// session store being down, is an internal error.
func (h *AnalysisHandler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidAnalysisRequest), errors.Is(err, usecase.ErrEmptyQuestion):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, port.ErrNotFound), errors.Is(err, usecase.ErrNoAnalysis):
		http.Error(w, "no analysis available", http.StatusNotFound)
	case errors.Is(err, usecase.ErrBackend):
		h.logger.Error(op+" failed", "error", err)
		http.Error(w, "analysis backend unavailable", http.StatusBadGateway)
	default:
		h.logger.Error(op+" failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
