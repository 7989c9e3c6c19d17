package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

// ModeService owns the current data mode and swaps the feed's quote source
// when it changes.
type ModeService struct {
	feed    *QuoteFeed
	sources map[model.DataMode]port.QuoteSource
	logger  *slog.Logger

	mu          sync.Mutex
	currentMode model.DataMode
}

func NewModeService(feed *QuoteFeed, sources map[model.DataMode]port.QuoteSource, initial model.DataMode, logger *slog.Logger) *ModeService {
	return &ModeService{
		feed:        feed,
		sources:     sources,
		logger:      logger,
		currentMode: initial,
	}
}

// SwitchMode stops the feed, points it at the mode's source and starts it
// again if it was running. The restarted feed is detached from ctx's
// cancellation so a request context can trigger the switch.
func (s *ModeService) SwitchMode(ctx context.Context, mode model.DataMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentMode == mode {
		return nil
	}
	source, ok := s.sources[mode]
	if !ok || source == nil {
		return fmt.Errorf("no quote source configured for %s mode", mode)
	}

	wasRunning := s.feed.Running()
	s.feed.Stop()
	s.feed.SetSource(source)
	if wasRunning {
		if err := s.feed.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("failed to restart feed: %w", err)
		}
	}

	s.logger.Info("mode switched", "old", s.currentMode, "new", mode, "source", source.Name())
	s.currentMode = mode
	return nil
}

func (s *ModeService) CurrentMode() model.DataMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentMode
}
