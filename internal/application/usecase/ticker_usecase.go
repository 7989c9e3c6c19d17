package usecase

import (
	"fmt"
	"strings"
	"time"

	"quotefeed/internal/domain/model"
)

// TableSource is the read side of the quote feed.
type TableSource interface {
	Table() *model.QuoteTable
	Symbols() []string
}

type TickerUseCase struct {
	feed   TableSource
	scroll time.Duration
}

func NewTickerUseCase(feed TableSource, scroll time.Duration) *TickerUseCase {
	return &TickerUseCase{feed: feed, scroll: scroll}
}

// Track renders the marquee from the currently published table.
func (uc *TickerUseCase) Track() model.Track {
	table := uc.feed.Table()
	return model.Track{
		Cycle:     table.Cycle,
		BuiltAt:   table.BuiltAt,
		Items:     BuildTrack(uc.feed.Symbols(), table),
		Animation: model.MarqueeAnimation(uc.scroll),
	}
}

func (uc *TickerUseCase) Quote(symbol string) (model.Quote, bool) {
	return uc.feed.Table().Get(symbol)
}

func (uc *TickerUseCase) Table() *model.QuoteTable {
	return uc.feed.Table()
}

// MarketContext maps every symbol with data to its session percent change.
func (uc *TickerUseCase) MarketContext() map[string]float64 {
	table := uc.feed.Table()
	out := make(map[string]float64, table.Len())
	for sym, q := range table.Quotes {
		out[sym] = q.PercentChange()
	}
	return out
}

// BuildTrack lays the symbol list out twice so the marquee can wrap around
// seamlessly. Symbols without a quote get the placeholder.
func BuildTrack(symbols []string, table *model.QuoteTable) []model.TickerItem {
	items := make([]model.TickerItem, 0, 2*len(symbols))
	for pass := 0; pass < 2; pass++ {
		for _, sym := range symbols {
			items = append(items, renderItem(sym, table))
		}
	}
	return items
}

func renderItem(symbol string, table *model.QuoteTable) model.TickerItem {
	q, ok := table.Get(symbol)
	if !ok {
		return model.TickerItem{
			Symbol:    symbol,
			Status:    model.StatusNoData,
			PriceText: model.NoDataText,
		}
	}
	return model.TickerItem{
		Symbol:        symbol,
		Status:        model.StatusOK,
		Price:         q.Current,
		PercentChange: q.PercentChange(),
		Direction:     q.Direction(),
		PriceText:     fmt.Sprintf("%.2f", q.Current),
		ChangeText:    q.ChangeText(),
	}
}

// Line renders the track as one line of plain text, used by the CLI.
func Line(items []model.TickerItem) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(it.Symbol)
		b.WriteByte(' ')
		b.WriteString(it.PriceText)
		if it.Status != model.StatusOK {
			continue
		}
		if it.Direction == model.DirectionDown {
			b.WriteString(" ▼")
		} else {
			b.WriteString(" ▲")
		}
		b.WriteString(it.ChangeText)
	}
	return b.String()
}
