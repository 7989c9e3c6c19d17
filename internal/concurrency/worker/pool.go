package worker

import (
	"context"
	"log/slog"
	"sync"

	"quotefeed/internal/concurrency/fanout"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

// Pool archives published quotes: latest value and rolling window go to the
// cache. When the cache write fails the quote is written to storage as a
// single-point aggregate instead, tagged with the source that produced the
// quote. source is only consulted for quotes that carry no source name.
type Pool struct {
	workers int
	source  func() string
	cache   port.CachePort
	storage port.StoragePort
	logger  *slog.Logger
}

func NewPool(workers int, source func() string, cache port.CachePort, storage port.StoragePort, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		source:  source,
		cache:   cache,
		storage: storage,
		logger:  logger,
	}
}

// Start spreads quotes from in over the workers and returns a channel that
// receives every quote after it was processed. Once ctx is done workers stop
// processing but keep draining in; the returned channel is closed after in
// has been closed and every worker has exited.
func (p *Pool) Start(ctx context.Context, in <-chan model.Quote) <-chan model.Quote {
	out := make(chan model.Quote)
	var wg sync.WaitGroup

	lanes := fanout.FanOut(in, p.workers)

	wg.Add(len(lanes))
	for i, lane := range lanes {
		go func(id int, lane <-chan model.Quote) {
			defer wg.Done()
			p.workerLoop(ctx, id, lane, out)
		}(i, lane)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (p *Pool) workerLoop(ctx context.Context, id int, in <-chan model.Quote, out chan<- model.Quote) {
	for {
		select {
		case <-ctx.Done():
			// keep draining so the fanout goroutine can finish
			for range in {
			}
			return
		case q, ok := <-in:
			if !ok {
				return
			}
			p.processOne(ctx, id, q)

			select {
			case <-ctx.Done():
			case out <- q:
			}
		}
	}
}

func (p *Pool) processOne(ctx context.Context, id int, q model.Quote) {
	if err := p.cache.SetLatestQuote(ctx, q); err != nil {
		p.logger.Error("worker: SetLatestQuote failed, falling back to storage", "worker", id, "symbol", q.Symbol, "error", err)
		p.fallbackWrite(ctx, q)
		return
	}

	if err := p.cache.AddQuoteToWindow(ctx, q); err != nil {
		p.logger.Error("worker: AddQuoteToWindow failed, falling back to storage", "worker", id, "symbol", q.Symbol, "error", err)
		p.fallbackWrite(ctx, q)
		return
	}

	p.logger.Debug("worker: archived quote", "worker", id, "symbol", q.Symbol, "current", q.Current)
}

func (p *Pool) fallbackWrite(ctx context.Context, q model.Quote) {
	source := q.Source
	if source == "" {
		source = p.source()
	}
	ap := model.AggregatedQuote{
		Symbol:       q.Symbol,
		Source:       source,
		Timestamp:    q.FetchedAt,
		AveragePrice: q.Current,
		MinPrice:     q.Current,
		MaxPrice:     q.Current,
	}

	if err := p.storage.SaveAggregatedQuotes(ctx, []model.AggregatedQuote{ap}); err != nil {
		p.logger.Error("worker: fallback SaveAggregatedQuotes failed", "symbol", q.Symbol, "error", err)
	}
}
