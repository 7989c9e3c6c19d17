package model

import "time"

// NoDataText is shown in place of a price when a symbol has no quote in the
// current table.
const NoDataText = "--"

type ItemStatus string

const (
	StatusOK     ItemStatus = "ok"
	StatusNoData ItemStatus = "no_data"
)

type TickerItem struct {
	Symbol        string     `json:"symbol"`
	Status        ItemStatus `json:"status"`
	Price         float64    `json:"price,omitempty"`
	PercentChange float64    `json:"percent_change,omitempty"`
	Direction     Direction  `json:"direction,omitempty"`
	PriceText     string     `json:"price_text"`
	ChangeText    string     `json:"change_text,omitempty"`
}

// Animation describes the marquee scroll. It is display metadata only and has
// no bearing on refresh timing.
type Animation struct {
	From     string        `json:"from"`
	To       string        `json:"to"`
	Easing   string        `json:"easing"`
	Duration time.Duration `json:"-"`
	Seconds  float64       `json:"duration_seconds"`
	Repeat   string        `json:"repeat"`
}

func MarqueeAnimation(d time.Duration) Animation {
	return Animation{
		From:     "0%",
		To:       "-50%",
		Easing:   "linear",
		Duration: d,
		Seconds:  d.Seconds(),
		Repeat:   "infinite",
	}
}

type Track struct {
	Cycle     uint64       `json:"cycle"`
	BuiltAt   time.Time    `json:"fetched_at"`
	Items     []TickerItem `json:"items"`
	Animation Animation    `json:"animation"`
}
