// Package memory is the client of the backend memory store, where every chat
// transcript snapshot is persisted as a separate record.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/memohai/memochat/internal/api"
	"github.com/memohai/memochat/internal/conversation"
)

const basePath = "/api/memory"

// Store is the subset of the memory API the chat session needs.
type Store interface {
	List(ctx context.Context, userID string) ([]conversation.Record, error)
	Save(ctx context.Context, req SaveRequest) (SaveResult, error)
}

// Client talks to the memory endpoints.
type Client struct {
	api    *api.Client
	logger *slog.Logger
}

// NewClient creates a memory client on top of the shared transport.
func NewClient(log *slog.Logger, apiClient *api.Client) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		api:    apiClient,
		logger: log.With(slog.String("client", "memory"), slog.String("base_url", apiClient.BaseURL())),
	}
}

// List returns every record stored for userID, in backend order.
func (c *Client) List(ctx context.Context, userID string) ([]conversation.Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	var records []conversation.Record
	if err := c.api.DoJSON(ctx, http.MethodGet, basePath+"/user/"+url.PathEscape(userID), nil, &records); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return records, nil
}

// Get returns one record by id.
func (c *Client) Get(ctx context.Context, id string) (conversation.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return conversation.Record{}, fmt.Errorf("memory id is required")
	}
	var record conversation.Record
	if err := c.api.DoJSON(ctx, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, &record); err != nil {
		return conversation.Record{}, fmt.Errorf("get memory: %w", err)
	}
	return record, nil
}

// Save persists a new record.
func (c *Client) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return SaveResult{}, fmt.Errorf("user id is required")
	}
	if req.Data == nil {
		req.Data = []conversation.Message{}
	}
	var result SaveResult
	if err := c.api.DoJSON(ctx, http.MethodPost, basePath, req, &result); err != nil {
		return SaveResult{}, fmt.Errorf("save memory: %w", err)
	}
	c.logger.Debug("memory saved", slog.String("id", result.ID), slog.Int("messages", len(req.Data)))
	return result, nil
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("memory id is required")
	}
	return c.delete(ctx, basePath+"/"+url.PathEscape(id))
}

// DeleteAll removes every record stored for userID.
func (c *Client) DeleteAll(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	return c.delete(ctx, basePath+"/user/"+url.PathEscape(userID))
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp := DeleteResponse{Success: true}
	if err := c.api.DoJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "backend reported failure"
		}
		return fmt.Errorf("delete memory: %s", resp.Error)
	}
	return nil
}

// Search returns records whose message content contains query.
func (c *Client) Search(ctx context.Context, query, userID string) ([]conversation.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	var records []conversation.Record
	req := SearchRequest{Query: query, UserID: strings.TrimSpace(userID)}
	if err := c.api.DoJSON(ctx, http.MethodPost, basePath+"/search", req, &records); err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	return records, nil
}
