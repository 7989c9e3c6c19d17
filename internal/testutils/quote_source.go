package testutils

import (
	"context"
	"errors"
	"sync"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var _ port.QuoteSource = (*ScriptedSource)(nil)

// Response is what ScriptedSource answers for one symbol. When Release is
// non-nil the call blocks until the channel is closed. Raw returns Quote as
// is, even when it has no opening price, the way a lenient provider would.
type Response struct {
	Quote   model.Quote
	Err     error
	Release chan struct{}
	Raw     bool
}

// ScriptedSource answers FetchQuote from a per-symbol table that tests can
// change between cycles. Unknown symbols fail.
type ScriptedSource struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     map[string]int
	started   chan string
}

func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{
		responses: make(map[string]Response),
		calls:     make(map[string]int),
		started:   make(chan string, 1024),
	}
}

func (s *ScriptedSource) Name() string { return "scripted" }

func (s *ScriptedSource) Set(symbol string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[symbol] = r
}

func (s *ScriptedSource) Calls(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[symbol]
}

// Started receives the symbol of every FetchQuote call as it begins.
func (s *ScriptedSource) Started() <-chan string { return s.started }

func (s *ScriptedSource) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	s.mu.Lock()
	r, ok := s.responses[symbol]
	s.calls[symbol]++
	s.mu.Unlock()

	select {
	case s.started <- symbol:
	default:
	}

	if !ok {
		return model.Quote{}, errors.New("unknown symbol")
	}
	if r.Release != nil {
		<-r.Release
	}
	if r.Err != nil {
		return model.Quote{}, r.Err
	}
	q := r.Quote
	q.Symbol = symbol
	if !r.Raw && !q.Usable() {
		return model.Quote{}, model.ErrIncompleteQuote
	}
	return q, nil
}
