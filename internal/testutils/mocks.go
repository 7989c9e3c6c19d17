// Package testutils holds in-memory doubles of the domain ports.
package testutils

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var (
	_ port.CachePort       = (*MockCache)(nil)
	_ port.StoragePort     = (*MockStorage)(nil)
	_ port.SessionStore    = (*MockSessionStore)(nil)
	_ port.AnalysisBackend = (*MockBackend)(nil)
)

type MockCache struct {
	mu        sync.Mutex
	Latest    map[string]model.Quote
	Windows   map[string][]model.Quote
	FailSet   bool
	FailAdd   bool
	PingErr   error
	DeletedAt []time.Time
}

func NewMockCache() *MockCache {
	return &MockCache{
		Latest:  make(map[string]model.Quote),
		Windows: make(map[string][]model.Quote),
	}
}

func (m *MockCache) SetLatestQuote(ctx context.Context, q model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet {
		return errors.New("set failed")
	}
	m.Latest[q.Symbol] = q
	return nil
}

func (m *MockCache) GetLatestQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.Latest[symbol]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (m *MockCache) AddQuoteToWindow(ctx context.Context, q model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd {
		return errors.New("add failed")
	}
	m.Windows[q.Symbol] = append(m.Windows[q.Symbol], q)
	return nil
}

func (m *MockCache) GetQuotesInWindow(ctx context.Context, symbol string) ([]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Quote(nil), m.Windows[symbol]...), nil
}

func (m *MockCache) DeleteOldQuotes(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeletedAt = append(m.DeletedAt, before)
	return nil
}

func (m *MockCache) Ping(ctx context.Context) error { return m.PingErr }
func (m *MockCache) Close() error                   { return nil }

func (m *MockCache) LatestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Latest)
}

type MockStorage struct {
	mu      sync.Mutex
	Saved   []model.AggregatedQuote
	SaveErr error
	PingErr error
}

func NewMockStorage() *MockStorage { return &MockStorage{} }

func (m *MockStorage) SaveAggregatedQuotes(ctx context.Context, quotes []model.AggregatedQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, quotes...)
	return nil
}

func (m *MockStorage) GetHighestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	return m.pick(symbol, func(a, b model.AggregatedQuote) bool { return a.MaxPrice > b.MaxPrice }), nil
}

func (m *MockStorage) GetLowestPrice(ctx context.Context, symbol string, period time.Duration) (*model.AggregatedQuote, error) {
	return m.pick(symbol, func(a, b model.AggregatedQuote) bool { return a.MinPrice < b.MinPrice }), nil
}

func (m *MockStorage) GetAveragePrice(ctx context.Context, symbol string, period time.Duration) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	var n int
	for _, s := range m.Saved {
		if s.Symbol == symbol {
			sum += s.AveragePrice
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

func (m *MockStorage) pick(symbol string, better func(a, b model.AggregatedQuote) bool) *model.AggregatedQuote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []model.AggregatedQuote
	for _, s := range m.Saved {
		if s.Symbol == symbol {
			rows = append(rows, s)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	sort.SliceStable(rows, func(i, j int) bool { return better(rows[i], rows[j]) })
	return &rows[0]
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.PingErr }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}

// MockSessionStore keeps the session in memory. The Err fields make the
// matching calls fail.
type MockSessionStore struct {
	mu         sync.Mutex
	Analysis   model.Analysis
	Chat       []model.ChatMessage
	LoadErr    error
	HistoryErr error
	ClearErr   error
}

func NewMockSessionStore() *MockSessionStore { return &MockSessionStore{} }

func (m *MockSessionStore) SaveAnalysis(ctx context.Context, a model.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Analysis = a
	return nil
}

func (m *MockSessionStore) LoadAnalysis(ctx context.Context) (model.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Analysis == nil {
		return nil, port.ErrNotFound
	}
	return m.Analysis, nil
}

func (m *MockSessionStore) AppendChat(ctx context.Context, msgs ...model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Chat = append(m.Chat, msgs...)
	return nil
}

func (m *MockSessionStore) ChatHistory(ctx context.Context) ([]model.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	return append([]model.ChatMessage{}, m.Chat...), nil
}

func (m *MockSessionStore) ClearChat(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.Chat = nil
	return nil
}

type MockBackend struct {
	mu          sync.Mutex
	AnalysisDoc model.Analysis
	Reply       model.ChatReply
	Err         error
	LastAnalyze model.AnalysisRequest
	LastChat    model.ChatRequest
}

func (m *MockBackend) Analyze(ctx context.Context, req model.AnalysisRequest) (model.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastAnalyze = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.AnalysisDoc, nil
}

func (m *MockBackend) Chat(ctx context.Context, req model.ChatRequest) (model.ChatReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastChat = req
	if m.Err != nil {
		return model.ChatReply{}, m.Err
	}
	return m.Reply, nil
}
