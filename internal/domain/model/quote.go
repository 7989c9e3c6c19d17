package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrIncompleteQuote is returned by quote sources when the provider answered
// but the record has no usable opening price.
var ErrIncompleteQuote = errors.New("quote has no opening price")

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

type Quote struct {
	Symbol        string    `json:"symbol"`
	Current       float64   `json:"current"`
	PreviousClose float64   `json:"previous_close"`
	Open          float64   `json:"open"`
	FetchedAt     time.Time `json:"fetched_at"`
	// Source names the provider that answered, stamped by the feed.
	Source        string    `json:"source,omitempty"`
}

// Usable reports whether the quote carries a defined, non-zero opening price.
func (q Quote) Usable() bool {
	return q.Open != 0 && !math.IsNaN(q.Open) && !math.IsInf(q.Open, 0)
}

// PercentChange is the session change measured against today's open,
// not the previous close.
func (q Quote) PercentChange() float64 {
	if !q.Usable() {
		return 0
	}
	return (q.Current - q.Open) / q.Open * 100
}

// Direction treats a flat session as up.
func (q Quote) Direction() Direction {
	if q.PercentChange() >= 0 {
		return DirectionUp
	}
	return DirectionDown
}

// ChangeText formats the percent change the way the ticker shows it: "+1.00%".
func (q Quote) ChangeText() string {
	pct := q.PercentChange()
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// QuoteTable is the set of quotes produced by one refresh cycle. A table is
// never modified after it has been built.
type QuoteTable struct {
	Cycle   uint64           `json:"cycle"`
	BuiltAt time.Time        `json:"built_at"`
	Source  string           `json:"source,omitempty"`
	Quotes  map[string]Quote `json:"quotes"`
}

func EmptyTable() *QuoteTable {
	return &QuoteTable{Quotes: map[string]Quote{}}
}

func NewQuoteTable(cycle uint64, builtAt time.Time, quotes []Quote) *QuoteTable {
	t := &QuoteTable{
		Cycle:   cycle,
		BuiltAt: builtAt,
		Quotes:  make(map[string]Quote, len(quotes)),
	}
	for _, q := range quotes {
		t.Quotes[q.Symbol] = q
	}
	return t
}

func (t *QuoteTable) Get(symbol string) (Quote, bool) {
	if t == nil {
		return Quote{}, false
	}
	q, ok := t.Quotes[symbol]
	return q, ok
}

func (t *QuoteTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Quotes)
}

// AggregatedQuote summarises the current price of a symbol over a window.
type AggregatedQuote struct {
	Symbol       string    `json:"symbol"`
	Source       string    `json:"source"`
	Timestamp    time.Time `json:"timestamp"`
	AveragePrice float64   `json:"average_price"`
	MinPrice     float64   `json:"min_price"`
	MaxPrice     float64   `json:"max_price"`
}
