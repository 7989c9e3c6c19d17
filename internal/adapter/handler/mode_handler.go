package handler

import (
	"context"
	"log/slog"
	"net/http"

	"quotefeed/internal/domain/model"
)

type ModeSwitcher interface {
	CurrentMode() model.DataMode
	SwitchMode(ctx context.Context, mode model.DataMode) error
}

type ModeHandler struct {
	modes ModeSwitcher
	log   *slog.Logger
}

func NewModeHandler(modes ModeSwitcher, log *slog.Logger) *ModeHandler {
	return &ModeHandler{
		modes: modes,
		log:   log,
	}
}

func (h *ModeHandler) SwitchToTest(w http.ResponseWriter, r *http.Request) {
	h.log.Info("received request to switch to test mode")
	h.switchMode(w, r, model.TestMode)
}

func (h *ModeHandler) SwitchToLive(w http.ResponseWriter, r *http.Request) {
	h.log.Info("received request to switch to live mode")
	h.switchMode(w, r, model.LiveMode)
}

func (h *ModeHandler) GetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"mode": h.modes.CurrentMode().String()})
}

func (h *ModeHandler) switchMode(w http.ResponseWriter, r *http.Request, mode model.DataMode) {
	currentMode := h.modes.CurrentMode()

	if currentMode == mode {
		h.log.Info("already in requested mode", "mode", mode)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "already in requested mode", "mode": mode.String()})
		return
	}

	if err := h.modes.SwitchMode(r.Context(), mode); err != nil {
		h.log.Error("switch mode failed", "from", currentMode, "to", mode, "error", err)
		http.Error(w, "failed to switch mode", http.StatusInternalServerError)
		return
	}

	h.log.Info("mode switched successfully", "new_mode", mode)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": mode.String()})
}
