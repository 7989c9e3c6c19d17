package port

import (
	"context"

	"quotefeed/internal/domain/model"
)

// AnalysisBackend is the remote portfolio-analysis service.
type AnalysisBackend interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) (model.Analysis, error)
	Chat(ctx context.Context, req model.ChatRequest) (model.ChatReply, error)
}
