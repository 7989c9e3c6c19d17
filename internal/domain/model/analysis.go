package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidAnalysisRequest = errors.New("invalid analysis request")

type Holding struct {
	Symbol        string  `json:"symbol"`
	Quantity      int     `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
}

type AnalysisRequest struct {
	Portfolio       []Holding `json:"portfolio"`
	InvestmentGoals []string  `json:"investment_goals"`
	RiskTolerance   string    `json:"risk_tolerance"`
	TimeHorizon     string    `json:"time_horizon"`
}

// Normalize upper-cases symbols and trims labels in place.
func (r *AnalysisRequest) Normalize() {
	for i := range r.Portfolio {
		r.Portfolio[i].Symbol = strings.ToUpper(strings.TrimSpace(r.Portfolio[i].Symbol))
	}
	goals := r.InvestmentGoals[:0]
	for _, g := range r.InvestmentGoals {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	r.InvestmentGoals = goals
	r.RiskTolerance = strings.TrimSpace(r.RiskTolerance)
	r.TimeHorizon = strings.TrimSpace(r.TimeHorizon)
}

func (r AnalysisRequest) Validate() error {
	if r.RiskTolerance == "" || len(r.InvestmentGoals) == 0 || r.TimeHorizon == "" {
		return fmt.Errorf("%w: risk tolerance, investment goals and time horizon are required", ErrInvalidAnalysisRequest)
	}
	if len(r.Portfolio) == 0 {
		return fmt.Errorf("%w: at least one holding is required", ErrInvalidAnalysisRequest)
	}
	for i, h := range r.Portfolio {
		if h.Symbol == "" || h.Quantity <= 0 || h.PurchasePrice <= 0 {
			return fmt.Errorf("%w: holding %d is incomplete", ErrInvalidAnalysisRequest, i+1)
		}
	}
	return nil
}

// Analysis is the open-ended document returned by the analysis backend.
type Analysis map[string]any

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID         string    `json:"id"`
	Role       ChatRole  `json:"role"`
	Text       string    `json:"text"`
	Confidence *float64  `json:"confidence,omitempty"`
	At         time.Time `json:"at"`
}

type ChatRequest struct {
	Question      string             `json:"question"`
	Analysis      Analysis           `json:"analysis"`
	MarketContext map[string]float64 `json:"market_context"`
}

type ChatReply struct {
	Insight    string   `json:"insight"`
	Confidence *float64 `json:"confidence,omitempty"`
}
