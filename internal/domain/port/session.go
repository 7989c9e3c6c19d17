package port

import (
	"context"
	"errors"

	"quotefeed/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// SessionStore keeps the last analysis document and the chat transcript.
type SessionStore interface {
	SaveAnalysis(ctx context.Context, analysis model.Analysis) error
	LoadAnalysis(ctx context.Context) (model.Analysis, error)
	AppendChat(ctx context.Context, messages ...model.ChatMessage) error
	ChatHistory(ctx context.Context) ([]model.ChatMessage, error)
	ClearChat(ctx context.Context) error
}
