package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"quotefeed/internal/concurrency/worker"
	"quotefeed/internal/domain/model"
)

// ArchiveService hands every published table to the worker pool. Enqueue is
// meant to be registered with QuoteFeed.Subscribe: it never blocks, and
// tables arriving while the buffer is full are dropped.
type ArchiveService struct {
	pool   *worker.Pool
	logger *slog.Logger
	tables chan *model.QuoteTable

	archived atomic.Uint64
	dropped  atomic.Uint64

	mu   sync.Mutex
	done chan struct{}
}

func NewArchiveService(pool *worker.Pool, buffer int, logger *slog.Logger) *ArchiveService {
	if buffer <= 0 {
		buffer = 16
	}
	return &ArchiveService{
		pool:   pool,
		logger: logger,
		tables: make(chan *model.QuoteTable, buffer),
	}
}

func (s *ArchiveService) Enqueue(table *model.QuoteTable) {
	if table.Len() == 0 {
		return
	}
	select {
	case s.tables <- table:
	default:
		s.dropped.Add(1)
		s.logger.Warn("archive buffer full, dropping table", "cycle", table.Cycle)
	}
}

// Start pumps queued tables into the pool until ctx is done.
func (s *ArchiveService) Start(ctx context.Context) {
	quotes := make(chan model.Quote)
	processed := s.pool.Start(ctx, quotes)

	done := make(chan struct{})
	s.mu.Lock()
	s.done = done
	s.mu.Unlock()

	go func() {
		defer close(quotes)
		for {
			select {
			case <-ctx.Done():
				return
			case table := <-s.tables:
				s.pump(ctx, table, quotes)
			}
		}
	}()

	go func() {
		defer close(done)
		for range processed {
			s.archived.Add(1)
		}
	}()
}

func (s *ArchiveService) pump(ctx context.Context, table *model.QuoteTable, out chan<- model.Quote) {
	symbols := make([]string, 0, table.Len())
	for sym := range table.Quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		select {
		case <-ctx.Done():
			return
		case out <- table.Quotes[sym]:
		}
	}
}

// Wait blocks until the pool has shut down after ctx passed to Start is done.
func (s *ArchiveService) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *ArchiveService) Archived() uint64 { return s.archived.Load() }
func (s *ArchiveService) Dropped() uint64  { return s.dropped.Load() }
