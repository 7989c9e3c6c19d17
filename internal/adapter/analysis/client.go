// Package analysis talks to the remote portfolio-analysis backend.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
)

var _ port.AnalysisBackend = (*Client)(nil)

const (
	analyzePath = "/analyze-portfolio"
	chatPath    = "/chat"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a backend client. Analysis runs can take a while, so the
// timeout is usually much longer than the quote feed's.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

func (c *Client) Analyze(ctx context.Context, req model.AnalysisRequest) (model.Analysis, error) {
	var doc model.Analysis
	if err := c.post(ctx, analyzePath, req, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("analysis backend returned an empty document")
	}
	c.log.Info("portfolio analysed", "holdings", len(req.Portfolio), "sections", len(doc))
	return doc, nil
}

// chatReply accepts both the current and the older reply field name.
type chatReply struct {
	Insight    string   `json:"insight"`
	Response   string   `json:"response"`
	Confidence *float64 `json:"confidence"`
}

func (c *Client) Chat(ctx context.Context, req model.ChatRequest) (model.ChatReply, error) {
	var raw chatReply
	if err := c.post(ctx, chatPath, req, &raw); err != nil {
		return model.ChatReply{}, err
	}
	reply := model.ChatReply{Insight: raw.Insight, Confidence: raw.Confidence}
	if reply.Insight == "" {
		reply.Insight = raw.Response
	}
	if reply.Insight == "" {
		return model.ChatReply{}, fmt.Errorf("chat backend returned no insight")
	}
	return reply, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("analysis backend error", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
