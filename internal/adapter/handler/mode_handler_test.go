package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/internal/domain/model"
)

type fakeModes struct {
	mode     model.DataMode
	err      error
	switches int
}

func (f *fakeModes) CurrentMode() model.DataMode { return f.mode }

func (f *fakeModes) SwitchMode(ctx context.Context, mode model.DataMode) error {
	f.switches++
	if f.err != nil {
		return f.err
	}
	f.mode = mode
	return nil
}

func TestModeHandler_Switch(t *testing.T) {
	modes := &fakeModes{mode: model.LiveMode}
	h := Handlers{Mode: NewModeHandler(modes, discardLogger())}

	rec := serve(t, h, http.MethodPost, "/mode/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "test", body["mode"])
	assert.Equal(t, model.TestMode, modes.mode)

	rec = serve(t, h, http.MethodPost, "/mode/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in requested mode")
	assert.Equal(t, 1, modes.switches)

	rec = serve(t, h, http.MethodGet, "/mode", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mode":"test"}`, rec.Body.String())
}

func TestModeHandler_Failure(t *testing.T) {
	modes := &fakeModes{mode: model.TestMode, err: errors.New("no api key")}
	h := Handlers{Mode: NewModeHandler(modes, discardLogger())}

	rec := serve(t, h, http.MethodPost, "/mode/live", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, model.TestMode, modes.mode)

	rec = serve(t, h, http.MethodGet, "/mode/live", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
