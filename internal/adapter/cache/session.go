package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var _ port.SessionStore = (*SessionStore)(nil)

// Fixed keys, one analysis and one transcript per deployment. Nothing here
// expires.
const (
	AnalysisKey = "portfolio:last_analysis"
	ChatKey     = "portfolio:chat_history"
)

type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) SaveAnalysis(ctx context.Context, analysis model.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}
	if err := s.client.Set(ctx, AnalysisKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

func (s *SessionStore) LoadAnalysis(ctx context.Context) (model.Analysis, error) {
	data, err := s.client.Get(ctx, AnalysisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	var analysis model.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return analysis, nil
}

func (s *SessionStore) AppendChat(ctx context.Context, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	values := make([]any, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal chat message: %w", err)
		}
		values = append(values, data)
	}
	if err := s.client.RPush(ctx, ChatKey, values...).Err(); err != nil {
		return fmt.Errorf("failed to append chat messages: %w", err)
	}
	return nil
}

func (s *SessionStore) ChatHistory(ctx context.Context) ([]model.ChatMessage, error) {
	items, err := s.client.LRange(ctx, ChatKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	out := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *SessionStore) ClearChat(ctx context.Context) error {
	if err := s.client.Del(ctx, ChatKey).Err(); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}
