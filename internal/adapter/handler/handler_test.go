package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quotefeed/internal/application/service"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/testutils"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFeed returns a feed over AAPL and MSFT that has published one table in
// which only AAPL has data.
func newFeed(t *testing.T) *service.QuoteFeed {
	t.Helper()
	src := testutils.NewScriptedSource()
	src.Set("AAPL", testutils.Response{Quote: model.Quote{Current: 101, Open: 100, PreviousClose: 99}})
	feed := service.NewQuoteFeed(src, []string{"AAPL", "MSFT"}, 10*time.Second, discardLogger())
	_, published := feed.Refresh(context.Background())
	require.True(t, published)
	return feed
}

func serve(t *testing.T, h Handlers, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	Register(mux, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
