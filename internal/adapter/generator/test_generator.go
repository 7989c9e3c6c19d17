package generator

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

// TestGenerator produces synthetic quotes: every symbol gets a stable base
// price and open, and each fetch moves the current price by a small random
// step.
type TestGenerator struct {
	name string
	log  *slog.Logger

	mu      sync.Mutex
	rnd     *rand.Rand
	session map[string]*session
}

type session struct {
	open      float64
	prevClose float64
	current   float64
}

func NewTestGenerator(name string, seed int64, log *slog.Logger) port.QuoteSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestGenerator{
		name:    name,
		log:     log,
		rnd:     rand.New(rand.NewSource(seed)),
		session: make(map[string]*session),
	}
}

func (t *TestGenerator) Name() string { return t.name }

func (t *TestGenerator) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return model.Quote{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.session[symbol]
	if !ok {
		base := basePrice(symbol)
		s = &session{
			prevClose: base,
			open:      base * (1 + (t.rnd.Float64()-0.5)*0.02),
		}
		s.current = s.open
		t.session[symbol] = s
	}

	// random walk of at most ±0.5% per fetch
	s.current *= 1 + (t.rnd.Float64()-0.5)*0.01

	return model.Quote{
		Symbol:        symbol,
		Current:       s.current,
		PreviousClose: s.prevClose,
		Open:          s.open,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

// basePrice derives a stable price between 10 and 510 from the symbol.
func basePrice(symbol string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return 10 + float64(h.Sum32()%50000)/100
}
