package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"quotefeed/internal/concurrency/fanin"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var ErrFeedRunning = errors.New("quote feed is already running")

const (
	DefaultPollInterval   = 10 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// TickerFunc arms a fixed-rate ticker and returns its channel and a stop func.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type FeedOption func(*QuoteFeed)

func WithTicker(fn TickerFunc) FeedOption {
	return func(f *QuoteFeed) { f.newTicker = fn }
}

func WithRequestTimeout(d time.Duration) FeedOption {
	return func(f *QuoteFeed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMeter(m metric.Meter) FeedOption {
	return func(f *QuoteFeed) { f.meter = m }
}

func WithTracer(t trace.Tracer) FeedOption {
	return func(f *QuoteFeed) { f.tracer = t }
}

func WithClock(now func() time.Time) FeedOption {
	return func(f *QuoteFeed) { f.now = now }
}

// QuoteFeed keeps the quotes of a fixed symbol list fresh. Every cycle fetches
// all symbols concurrently and replaces the published table as a whole;
// symbols whose fetch failed are simply absent until a later cycle succeeds.
//
// Cycles start at a fixed rate and may overlap. Each cycle is numbered when it
// starts and only publishes if no later cycle has published already. Stop
// bumps the feed epoch, so cycles still in flight at that point never publish.
type QuoteFeed struct {
	symbols   []string
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	newTicker TickerFunc
	now       func() time.Time
	meter     metric.Meter
	metrics   feedMetrics
	tracer    trace.Tracer

	seq   atomic.Uint64
	table atomic.Pointer[model.QuoteTable]

	mu            sync.Mutex
	source        port.QuoteSource
	running       bool
	cancel        context.CancelFunc
	done          chan struct{}
	epoch         uint64
	lastPublished uint64
	listeners     []func(*model.QuoteTable)
}

func NewQuoteFeed(source port.QuoteSource, symbols []string, interval time.Duration, logger *slog.Logger, opts ...FeedOption) *QuoteFeed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	f := &QuoteFeed{
		symbols:   append([]string(nil), symbols...),
		interval:  interval,
		timeout:   DefaultRequestTimeout,
		logger:    logger,
		newTicker: systemTicker,
		now:       time.Now,
		source:    source,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.timeout >= f.interval {
		f.timeout = f.interval / 2
	}
	if f.meter == nil {
		f.meter = otel.Meter("quotefeed/feed")
	}
	f.metrics = newFeedMetrics(f.meter, logger)
	if f.tracer == nil {
		f.tracer = otel.Tracer("quotefeed/feed")
	}
	f.table.Store(model.EmptyTable())
	return f
}

func (f *QuoteFeed) Symbols() []string {
	return append([]string(nil), f.symbols...)
}

func (f *QuoteFeed) Interval() time.Duration { return f.interval }

// Table returns the last published table. It is never nil.
func (f *QuoteFeed) Table() *model.QuoteTable {
	return f.table.Load()
}

func (f *QuoteFeed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *QuoteFeed) SourceName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source.Name()
}

// SetSource replaces the quote source. Cycles already started keep the source
// they started with.
func (f *QuoteFeed) SetSource(source port.QuoteSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = source
}

// Subscribe registers fn to receive every published table in publication
// order. fn runs while the feed holds its lock: it must not block or call back
// into the feed.
func (f *QuoteFeed) Subscribe(fn func(*model.QuoteTable)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Start runs one cycle immediately and then one every interval until Stop is
// called or ctx is done. A done ctx tears the run down the same way Stop
// does, after which the feed can be started again.
func (f *QuoteFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return ErrFeedRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	ticks, stopTicker := f.newTicker(f.interval)
	done := make(chan struct{})
	f.running = true
	f.cancel = cancel
	f.done = done
	epoch := f.epoch
	source := f.source.Name()
	f.mu.Unlock()

	f.logger.Info("quote feed starting", "symbols", len(f.symbols), "interval", f.interval.String(), "source", source)

	go f.loop(ctx, epoch, ticks, stopTicker, done)
	return nil
}

// Stop cancels the timer, discards the results of cycles still in flight and
// clears the published table. It is safe to call more than once.
func (f *QuoteFeed) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	f.epoch++
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.table.Store(model.EmptyTable())
	f.mu.Unlock()

	cancel()
	<-done
	f.logger.Info("quote feed stopped")
}

func (f *QuoteFeed) loop(ctx context.Context, epoch uint64, ticks <-chan time.Time, stopTicker func(), done chan struct{}) {
	defer close(done)
	defer stopTicker()

	go f.runCycle(ctx, epoch)

	for {
		select {
		case <-ctx.Done():
			f.deactivate(done)
			return
		case <-ticks:
			go f.runCycle(ctx, epoch)
		}
	}
}

// deactivate ends the run owning done unless Stop or a later Start already
// replaced it.
func (f *QuoteFeed) deactivate(done chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running || f.done != done {
		return
	}
	f.running = false
	f.epoch++
	f.cancel()
	f.cancel, f.done = nil, nil
	f.table.Store(model.EmptyTable())
	f.logger.Info("quote feed stopped", "reason", "context done")
}

// Refresh runs a single cycle synchronously and reports whether its table
// was published.
func (f *QuoteFeed) Refresh(ctx context.Context) (*model.QuoteTable, bool) {
	f.mu.Lock()
	epoch := f.epoch
	f.mu.Unlock()
	return f.runCycle(ctx, epoch)
}

func (f *QuoteFeed) runCycle(ctx context.Context, epoch uint64) (*model.QuoteTable, bool) {
	cycle := f.seq.Add(1)
	start := f.now()

	f.mu.Lock()
	source := f.source
	f.mu.Unlock()

	ctx, span := f.tracer.Start(ctx, "feed.refresh", trace.WithAttributes(
		attribute.Int64("feed.cycle", int64(cycle)),
		attribute.String("feed.source", source.Name()),
		attribute.Int("feed.symbols", len(f.symbols)),
	))
	defer span.End()

	table, dropped := f.collect(ctx, source, cycle)
	published := f.publish(epoch, table)
	span.SetAttributes(
		attribute.Int("feed.quotes", table.Len()),
		attribute.Int("feed.dropped", dropped),
		attribute.Bool("feed.published", published),
	)

	attrs := metric.WithAttributes(attribute.String("source", source.Name()))
	f.metrics.cycles.Add(context.Background(), 1, attrs)
	f.metrics.fetched.Add(context.Background(), int64(table.Len()), attrs)
	f.metrics.dropped.Add(context.Background(), int64(dropped), attrs)
	f.metrics.duration.Record(context.Background(), f.now().Sub(start).Seconds(), attrs)

	f.logger.Debug("refresh cycle finished",
		"cycle", cycle,
		"quotes", table.Len(),
		"dropped", dropped,
		"published", published,
		"duration", f.now().Sub(start))

	return table, published
}

type fetchResult struct {
	symbol string
	quote  model.Quote
	err    error
}

// collect fetches every symbol concurrently and waits for all of them to
// settle. Failed or incomplete symbols are left out of the table.
func (f *QuoteFeed) collect(ctx context.Context, source port.QuoteSource, cycle uint64) (*model.QuoteTable, int) {
	results := make([]<-chan fetchResult, 0, len(f.symbols))
	for _, sym := range f.symbols {
		ch := make(chan fetchResult, 1)
		results = append(results, ch)

		go func(sym string, ch chan<- fetchResult) {
			defer close(ch)
			reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()
			q, err := source.FetchQuote(reqCtx, sym)
			ch <- fetchResult{symbol: sym, quote: q, err: err}
		}(sym, ch)
	}

	quotes := make([]model.Quote, 0, len(f.symbols))
	dropped := 0
	for r := range fanin.FanIn(results...) {
		if r.err != nil {
			dropped++
			f.logger.Debug("quote fetch failed", "symbol", r.symbol, "cycle", cycle, "error", r.err)
			continue
		}
		if !r.quote.Usable() {
			dropped++
			f.logger.Debug("quote has no opening price", "symbol", r.symbol, "cycle", cycle)
			continue
		}
		q := r.quote
		q.Symbol = r.symbol
		q.Source = source.Name()
		if q.FetchedAt.IsZero() {
			q.FetchedAt = f.now()
		}
		quotes = append(quotes, q)
	}

	table := model.NewQuoteTable(cycle, f.now(), quotes)
	table.Source = source.Name()
	return table, dropped
}

func (f *QuoteFeed) publish(epoch uint64, table *model.QuoteTable) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if epoch != f.epoch {
		f.logger.Debug("discarding cycle of stopped feed", "cycle", table.Cycle)
		return false
	}
	if table.Cycle <= f.lastPublished {
		f.logger.Warn("discarding stale cycle", "cycle", table.Cycle, "last_published", f.lastPublished)
		return false
	}

	f.lastPublished = table.Cycle
	f.table.Store(table)
	for _, fn := range f.listeners {
		fn(table)
	}
	return true
}

type feedMetrics struct {
	cycles   metric.Int64Counter
	fetched  metric.Int64Counter
	dropped  metric.Int64Counter
	duration metric.Float64Histogram
}

func newFeedMetrics(meter metric.Meter, logger *slog.Logger) feedMetrics {
	m := feedMetrics{
		cycles:   noop.Int64Counter{},
		fetched:  noop.Int64Counter{},
		dropped:  noop.Int64Counter{},
		duration: noop.Float64Histogram{},
	}

	counters := []struct {
		name, desc string
		dst        *metric.Int64Counter
	}{
		{"quotefeed.cycles", "Refresh cycles run", &m.cycles},
		{"quotefeed.quotes.fetched", "Usable quotes collected", &m.fetched},
		{"quotefeed.quotes.dropped", "Symbols left out of a cycle", &m.dropped},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			logger.Warn("failed to create metric", "name", c.name, "error", err)
			continue
		}
		*c.dst = counter
	}

	hist, err := meter.Float64Histogram("quotefeed.cycle.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Wall time of a refresh cycle"))
	if err != nil {
		logger.Warn("failed to create metric", "name", "quotefeed.cycle.duration", "error", err)
	} else {
		m.duration = hist
	}
	return m
}
