package model

import (
	"sort"
	"strconv"
)

type PerformancePoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type Performance struct {
	TotalValue         float64            `json:"total_value"`
	TotalReturn        float64            `json:"total_return"`
	TotalReturnPercent float64            `json:"total_return_percent"`
	DailyChange        float64            `json:"daily_change"`
	DailyChangePercent float64            `json:"daily_change_percent"`
	History            []PerformancePoint `json:"history"`
}

type AllocationSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type RiskMetric struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Status string  `json:"status"`
}

type Risk struct {
	Score   float64      `json:"score"`
	Level   string       `json:"level"`
	Metrics []RiskMetric `json:"metrics"`
}

type Sentiment struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

type Recommendation struct {
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Dashboard is the chart-ready shape of an Analysis. Every slice is non-nil
// so that renderers never have to special-case a missing section.
type Dashboard struct {
	Performance     Performance       `json:"performance"`
	Allocation      []AllocationSlice `json:"allocation"`
	Risk            Risk              `json:"risk"`
	Sentiment       Sentiment         `json:"sentiment"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// Dashboard reads the optional sections of the document, substituting zero
// values for anything missing or of the wrong type.
func (a Analysis) Dashboard() Dashboard {
	d := Dashboard{
		Performance:     Performance{History: []PerformancePoint{}},
		Allocation:      []AllocationSlice{},
		Risk:            Risk{Metrics: []RiskMetric{}},
		Recommendations: []Recommendation{},
	}

	if perf := object(a["performance"]); perf != nil {
		d.Performance.TotalValue = number(perf["total_value"])
		d.Performance.TotalReturn = number(perf["total_return"])
		d.Performance.TotalReturnPercent = number(perf["total_return_percent"])
		d.Performance.DailyChange = number(perf["daily_change"])
		d.Performance.DailyChangePercent = number(perf["daily_change_percent"])
		for _, item := range list(perf["history"]) {
			if p := object(item); p != nil {
				d.Performance.History = append(d.Performance.History, PerformancePoint{
					Date:  text(p["date"]),
					Value: number(p["value"]),
				})
			}
		}
	}

	switch alloc := a["allocation"].(type) {
	case []any:
		for _, item := range alloc {
			if s := object(item); s != nil {
				d.Allocation = append(d.Allocation, AllocationSlice{Name: text(s["name"]), Value: number(s["value"])})
			}
		}
	case map[string]any:
		names := make([]string, 0, len(alloc))
		for name := range alloc {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			d.Allocation = append(d.Allocation, AllocationSlice{Name: name, Value: number(alloc[name])})
		}
	}

	if risk := object(a["risk"]); risk != nil {
		d.Risk.Score = number(risk["score"])
		d.Risk.Level = text(risk["level"])
		for _, item := range list(risk["metrics"]) {
			if m := object(item); m != nil {
				d.Risk.Metrics = append(d.Risk.Metrics, RiskMetric{
					Name:   text(m["name"]),
					Score:  number(m["score"]),
					Status: text(m["status"]),
				})
			}
		}
	}

	if s := object(a["sentiment"]); s != nil {
		d.Sentiment.Score = number(s["score"])
		d.Sentiment.Summary = text(s["summary"])
	}

	for _, item := range list(a["recommendations"]) {
		if r := object(item); r != nil {
			d.Recommendations = append(d.Recommendations, Recommendation{
				Type:        text(r["type"]),
				Priority:    text(r["priority"]),
				Title:       text(r["title"]),
				Description: text(r["description"]),
				Confidence:  number(r["confidence"]),
			})
		}
	}

	return d
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

// number accepts JSON numbers and numeric strings, the backend sends both.
func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
