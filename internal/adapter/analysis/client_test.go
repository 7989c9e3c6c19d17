package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotefeed/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Analyze(t *testing.T) {
	var got model.AnalysisRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze-portfolio", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"portfolio_performance":{"total_value":2000},"recommendations":["hold"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second, testLogger())
	req := model.AnalysisRequest{
		Portfolio:       []model.Holding{{Symbol: "AAPL", Quantity: 10, PurchasePrice: 150}},
		InvestmentGoals: []string{"growth"},
		RiskTolerance:   "moderate",
		TimeHorizon:     "5 years",
	}

	doc, err := client.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, doc, "portfolio_performance")
	assert.Equal(t, req, got)
}

func TestClient_Analyze_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, testLogger()).Analyze(context.Background(), model.AnalysisRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClient_Analyze_EmptyDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, testLogger()).Analyze(context.Background(), model.AnalysisRequest{})
	assert.Error(t, err)
}

func TestClient_Chat(t *testing.T) {
	var got model.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"insight":"Trim NVDA.","confidence":0.72}`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second, testLogger()).Chat(context.Background(), model.ChatRequest{
		Question:      "What should I trim?",
		Analysis:      model.Analysis{"recommendations": []any{"trim"}},
		MarketContext: map[string]float64{"NVDA": 2.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "Trim NVDA.", reply.Insight)
	require.NotNil(t, reply.Confidence)
	assert.InDelta(t, 0.72, *reply.Confidence, 1e-9)
	assert.Equal(t, "What should I trim?", got.Question)
	assert.Equal(t, 2.5, got.MarketContext["NVDA"])
}

func TestClient_Chat_ResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"Stay diversified."}`))
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL, time.Second, testLogger()).Chat(context.Background(), model.ChatRequest{Question: "?"})
	require.NoError(t, err)
	assert.Equal(t, "Stay diversified.", reply.Insight)
	assert.Nil(t, reply.Confidence)
}

func TestClient_Chat_NoInsight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, testLogger()).Chat(context.Background(), model.ChatRequest{Question: "?"})
	assert.Error(t, err)
}
