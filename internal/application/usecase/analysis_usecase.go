package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoAnalysis    = errors.New("no analysis available, run an analysis first")
	// ErrBackend wraps every failure reported by the analysis backend.
	ErrBackend = errors.New("analysis backend failed")
)

// MarketContextSource supplies the percent change of every symbol currently
// on the ticker.
type MarketContextSource interface {
	MarketContext() map[string]float64
}

type AnalysisUseCase struct {
	backend port.AnalysisBackend
	store   port.SessionStore
	market  MarketContextSource
	logger  *slog.Logger
	now     func() time.Time
}

func NewAnalysisUseCase(backend port.AnalysisBackend, store port.SessionStore, market MarketContextSource, logger *slog.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{
		backend: backend,
		store:   store,
		market:  market,
		logger:  logger,
		now:     time.Now,
	}
}

// Analyze validates the request, forwards it to the analysis backend and keeps
// the returned document as the last analysis. A failure to persist the
// document is logged, not returned.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, req model.AnalysisRequest) (model.Analysis, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	analysis, err := uc.backend.Analyze(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze portfolio: %w: %w", ErrBackend, err)
	}
	if analysis == nil {
		analysis = model.Analysis{}
	}

	if err := uc.store.SaveAnalysis(ctx, analysis); err != nil {
		uc.logger.Warn("failed to persist analysis", "error", err)
	}

	uc.logger.Info("portfolio analysed", "holdings", len(req.Portfolio), "risk_tolerance", req.RiskTolerance)
	return analysis, nil
}

func (uc *AnalysisUseCase) LastAnalysis(ctx context.Context) (model.Analysis, error) {
	return uc.store.LoadAnalysis(ctx)
}

// Ask sends a question about the last analysis to the backend together with
// the current market context and records both sides in the transcript.
func (uc *AnalysisUseCase) Ask(ctx context.Context, question string) (model.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.ChatMessage{}, ErrEmptyQuestion
	}

	analysis, err := uc.store.LoadAnalysis(ctx)
	if errors.Is(err, port.ErrNotFound) {
		return model.ChatMessage{}, ErrNoAnalysis
	}
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("load analysis: %w", err)
	}

	asked := model.ChatMessage{
		ID:   uuid.NewString(),
		Role: model.RoleUser,
		Text: question,
		At:   uc.now().UTC(),
	}

	reply, err := uc.backend.Chat(ctx, model.ChatRequest{
		Question:      question,
		Analysis:      analysis,
		MarketContext: uc.market.MarketContext(),
	})
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("chat: %w: %w", ErrBackend, err)
	}

	answer := model.ChatMessage{
		ID:         uuid.NewString(),
		Role:       model.RoleAssistant,
		Text:       reply.Insight,
		Confidence: reply.Confidence,
		At:         uc.now().UTC(),
	}

	if err := uc.store.AppendChat(ctx, asked, answer); err != nil {
		uc.logger.Warn("failed to persist chat transcript", "error", err)
	}
	return answer, nil
}

func (uc *AnalysisUseCase) History(ctx context.Context) ([]model.ChatMessage, error) {
	return uc.store.ChatHistory(ctx)
}

func (uc *AnalysisUseCase) ClearHistory(ctx context.Context) error {
	return uc.store.ClearChat(ctx)
}
