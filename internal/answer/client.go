// Package answer is the client of the backend answer generation endpoint.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/memohai/memochat/internal/api"
)

const answerPath = "/api/get_answer"

// Request is the body of POST /api/get_answer.
type Request struct {
	Query          string `json:"query"`
	EmbeddingModel string `json:"embedding_model"`
	AppType        string `json:"app_type"`
}

// Response is the body returned by POST /api/get_answer.
type Response struct {
	Response string `json:"response"`
}

// Answerer produces a reply for a user query.
type Answerer interface {
	Ask(ctx context.Context, query string) (string, error)
}

// Options are the fixed generation parameters sent with every query.
type Options struct {
	EmbeddingModel string
	AppType        string
}

// Client calls the answer endpoint.
type Client struct {
	api    *api.Client
	opts   Options
	logger *slog.Logger
}

// NewClient creates an answer client. Empty options fall back to open_ai / app.
func NewClient(log *slog.Logger, apiClient *api.Client, opts Options) *Client {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(opts.EmbeddingModel) == "" {
		opts.EmbeddingModel = "open_ai"
	}
	if strings.TrimSpace(opts.AppType) == "" {
		opts.AppType = "app"
	}
	return &Client{
		api:    apiClient,
		opts:   opts,
		logger: log.With(slog.String("client", "answer")),
	}
}

// Ask sends query unmodified and returns the generated text, which may be empty.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	req := Request{
		Query:          query,
		EmbeddingModel: c.opts.EmbeddingModel,
		AppType:        c.opts.AppType,
	}
	var resp Response
	if err := c.api.DoJSON(ctx, http.MethodPost, answerPath, req, &resp); err != nil {
		return "", fmt.Errorf("get answer: %w", err)
	}
	return resp.Response, nil
}
