package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() AnalysisRequest {
	return AnalysisRequest{
		Portfolio:       []Holding{{Symbol: " aapl ", Quantity: 10, PurchasePrice: 150}},
		InvestmentGoals: []string{"growth", " "},
		RiskTolerance:   "moderate",
		TimeHorizon:     "long-term",
	}
}

func TestAnalysisRequestNormalize(t *testing.T) {
	r := validRequest()
	r.Normalize()
	assert.Equal(t, "AAPL", r.Portfolio[0].Symbol)
	assert.Equal(t, []string{"growth"}, r.InvestmentGoals)
	assert.NoError(t, r.Validate())
}

func TestAnalysisRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
	}{
		{"MissingRisk", func(r *AnalysisRequest) { r.RiskTolerance = "" }},
		{"MissingGoals", func(r *AnalysisRequest) { r.InvestmentGoals = nil }},
		{"MissingHorizon", func(r *AnalysisRequest) { r.TimeHorizon = "" }},
		{"NoHoldings", func(r *AnalysisRequest) { r.Portfolio = nil }},
		{"EmptySymbol", func(r *AnalysisRequest) { r.Portfolio[0].Symbol = "" }},
		{"ZeroQuantity", func(r *AnalysisRequest) { r.Portfolio[0].Quantity = 0 }},
		{"ZeroPrice", func(r *AnalysisRequest) { r.Portfolio[0].PurchasePrice = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			r.Normalize()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidAnalysisRequest)
		})
	}
}

func TestAnalysisDashboardDefaults(t *testing.T) {
	d := Analysis{}.Dashboard()
	assert.NotNil(t, d.Performance.History)
	assert.NotNil(t, d.Allocation)
	assert.NotNil(t, d.Risk.Metrics)
	assert.NotNil(t, d.Recommendations)
	assert.Zero(t, d.Performance.TotalValue)
	assert.Empty(t, d.Sentiment.Summary)
}

func TestAnalysisDashboardFromBackendDocument(t *testing.T) {
	raw := `{
		"performance": {"total_value": 127843.52, "total_return": "23157.44",
			"history": [{"date": "2023-01", "value": 104686}, "junk"]},
		"allocation": {"Technology": 45, "Energy": 8},
		"risk": {"score": 6.8, "level": "moderate",
			"metrics": [{"name": "Volatility", "score": 6.8, "status": "moderate"}]},
		"sentiment": {"score": 0.4, "summary": "cautiously bullish"},
		"recommendations": [{"type": "Rebalance", "priority": "high",
			"title": "Reduce Technology Exposure", "confidence": 87}],
		"extra": {"ignored": true}
	}`
	var a Analysis
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	d := a.Dashboard()
	assert.Equal(t, 127843.52, d.Performance.TotalValue)
	assert.Equal(t, 23157.44, d.Performance.TotalReturn)
	require.Len(t, d.Performance.History, 1)
	assert.Equal(t, "2023-01", d.Performance.History[0].Date)

	require.Len(t, d.Allocation, 2)
	assert.Equal(t, AllocationSlice{Name: "Energy", Value: 8}, d.Allocation[0])
	assert.Equal(t, AllocationSlice{Name: "Technology", Value: 45}, d.Allocation[1])

	assert.Equal(t, "moderate", d.Risk.Level)
	require.Len(t, d.Risk.Metrics, 1)
	assert.Equal(t, "Volatility", d.Risk.Metrics[0].Name)
	assert.Equal(t, "cautiously bullish", d.Sentiment.Summary)

	require.Len(t, d.Recommendations, 1)
	assert.Equal(t, 87.0, d.Recommendations[0].Confidence)
	assert.Empty(t, d.Recommendations[0].Description)
}

func TestAnalysisDashboardAllocationList(t *testing.T) {
	a := Analysis{"allocation": []any{
		map[string]any{"name": "Healthcare", "value": 20.0},
		42.0,
	}}
	d := a.Dashboard()
	assert.Equal(t, []AllocationSlice{{Name: "Healthcare", Value: 20}}, d.Allocation)
}
