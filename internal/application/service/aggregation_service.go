package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

// FeedInfo is what the background services need to know about the feed.
type FeedInfo interface {
	Symbols() []string
	SourceName() string
}

// AggregationService periodically rolls the cached quote windows up into
// avg/min/max rows in storage and prunes the windows afterwards.
type AggregationService struct {
	cache   port.CachePort
	storage port.StoragePort
	feed    FeedInfo
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	retention time.Duration
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewAggregationService(cache port.CachePort, storage port.StoragePort, feed FeedInfo, logger *slog.Logger) *AggregationService {
	return &AggregationService{
		cache:     cache,
		storage:   storage,
		feed:      feed,
		logger:    logger,
		now:       time.Now,
		retention: time.Minute,
	}
}

// Start runs an aggregation every interval. If interval <= 0 one minute is
// used. Windows are pruned to the last interval after every successful save.
func (s *AggregationService) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		s.logger.Warn("aggregation service already running")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.retention = interval
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.logger.Info("aggregation service starting", "interval", interval.String())
	go s.aggregateLoop(ctx, interval, done)
}

// Stop ends the loop after a final aggregation and waits for it.
func (s *AggregationService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("aggregation service stopped")
}

func (s *AggregationService) aggregateLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	defer func() {
		s.logger.Info("running final aggregation before exit")
		finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = s.aggregateAndStore(finalCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := s.aggregateAndStore(ctx); err != nil {
				s.logger.Error("aggregation failed", "error", err, "duration", time.Since(start))
			} else {
				s.logger.Debug("aggregation cycle completed", "duration", time.Since(start))
			}
		}
	}
}

func (s *AggregationService) aggregateAndStore(ctx context.Context) error {
	s.mu.Lock()
	retention := s.retention
	s.mu.Unlock()

	now := s.now().UTC()
	source := s.feed.SourceName()

	var batch []model.AggregatedQuote
	for _, symbol := range s.feed.Symbols() {
		quotes, err := s.cache.GetQuotesInWindow(ctx, symbol)
		if err != nil {
			s.logger.Error("failed to get quotes from cache", "symbol", symbol, "error", err)
			continue
		}
		if len(quotes) == 0 {
			continue
		}
		avg, mn, mx := computeStats(quotes)
		batch = append(batch, model.AggregatedQuote{
			Symbol:       symbol,
			Source:       source,
			Timestamp:    now,
			AveragePrice: avg,
			MinPrice:     mn,
			MaxPrice:     mx,
		})
	}

	if len(batch) > 0 {
		if err := s.storage.SaveAggregatedQuotes(ctx, batch); err != nil {
			// keep the windows, the next run retries them
			return err
		}
		s.logger.Info("aggregated batch saved", "count", len(batch))
	}

	if err := s.cache.DeleteOldQuotes(ctx, now.Add(-retention)); err != nil {
		s.logger.Error("failed to delete old quotes from cache", "error", err)
	}
	return nil
}

func computeStats(quotes []model.Quote) (avg, lo, hi float64) {
	if len(quotes) == 0 {
		return 0, 0, 0
	}
	lo = quotes[0].Current
	hi = quotes[0].Current
	var sum float64
	for _, q := range quotes {
		if q.Current < lo {
			lo = q.Current
		}
		if q.Current > hi {
			hi = q.Current
		}
		sum += q.Current
	}
	avg = sum / float64(len(quotes))
	return avg, lo, hi
}
