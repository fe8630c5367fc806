// Package apitest provides an in-process fake of the memory and answer backend
// for tests. It keeps records in memory, stamps them with a monotonic clock,
// records every call, and can be told to fail individual endpoints.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TimestampLayout mirrors the zone-less ISO 8601 form the real backend emits.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// SaveCall is one recorded POST /api/memory body.
type SaveCall struct {
	Data     []map[string]any `json:"data"`
	UserID   string           `json:"user_id"`
	Metadata map[string]any   `json:"metadata"`
}

// AskCall is one recorded POST /api/get_answer body.
type AskCall struct {
	Query          string `json:"query"`
	EmbeddingModel string `json:"embedding_model"`
	AppType        string `json:"app_type"`
}

// Backend is the fake server state.
type Backend struct {
	mu      sync.Mutex
	records []map[string]any
	clock   time.Time

	saves   []SaveCall
	asks    []AskCall
	deletes []string
	lists   int

	// Answer computes the reply for a query; nil echoes it back.
	Answer func(query string) (string, error)

	failList   bool
	failSave   bool
	failDelete bool
	failAnswer bool
}

// New creates an empty backend whose clock starts at a fixed instant.
func New() *Backend {
	return &Backend{clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

// Start serves the backend over HTTP for the lifetime of the test.
func (b *Backend) Start(t interface{ Cleanup(func()) }) *httptest.Server {
	server := httptest.NewServer(b.Handler())
	t.Cleanup(server.Close)
	return server
}

// Handler returns the echo router implementing the API surface.
func (b *Backend) Handler() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api := e.Group("/api")
	api.POST("/memory", b.handleSave)
	api.POST("/memory/search", b.handleSearch)
	api.GET("/memory/user/:user_id", b.handleList)
	api.DELETE("/memory/user/:user_id", b.handleDeleteAll)
	api.GET("/memory/:id", b.handleGet)
	api.DELETE("/memory/:id", b.handleDelete)
	api.POST("/get_answer", b.handleAnswer)
	return e
}

// FailList makes GET /api/memory/user/:id return 500.
func (b *Backend) FailList(fail bool) { b.set(&b.failList, fail) }

// FailSave makes POST /api/memory return 500.
func (b *Backend) FailSave(fail bool) { b.set(&b.failSave, fail) }

// FailDelete makes DELETE /api/memory/:id return 500.
func (b *Backend) FailDelete(fail bool) { b.set(&b.failDelete, fail) }

// FailAnswer makes POST /api/get_answer return 500.
func (b *Backend) FailAnswer(fail bool) { b.set(&b.failAnswer, fail) }

func (b *Backend) set(flag *bool, value bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	*flag = value
}

// Seed stores a record verbatim. Missing id and created_at are filled in;
// data is kept as given so malformed payloads can be exercised.
func (b *Backend) Seed(record map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := record["id"]; !ok {
		record["id"] = uuid.NewString()
	}
	if _, ok := record["created_at"]; !ok {
		record["created_at"] = b.tick()
	}
	b.records = append(b.records, record)
	return fmt.Sprint(record["id"])
}

// SeedChat stores a chat_history snapshot for userID with alternating user and
// assistant messages built from contents.
func (b *Backend) SeedChat(userID string, contents ...string) string {
	data := make([]any, 0, len(contents))
	for i, content := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		data = append(data, map[string]any{"role": role, "content": content})
	}
	return b.Seed(map[string]any{
		"data":     data,
		"user_id":  userID,
		"metadata": map[string]any{"type": "chat_history"},
	})
}

// Saves returns the recorded save bodies.
func (b *Backend) Saves() []SaveCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SaveCall(nil), b.saves...)
}

// Asks returns the recorded answer requests.
func (b *Backend) Asks() []AskCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]AskCall(nil), b.asks...)
}

// Deletes returns the ids passed to DELETE /api/memory/:id.
func (b *Backend) Deletes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deletes...)
}

// ListCalls returns how many list requests were served.
func (b *Backend) ListCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

// IDs returns the ids of all stored records in insertion order.
func (b *Backend) IDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.records))
	for _, r := range b.records {
		ids = append(ids, fmt.Sprint(r["id"]))
	}
	return ids
}

func (b *Backend) tick() string {
	b.clock = b.clock.Add(time.Second)
	return b.clock.Format(TimestampLayout)
}

func (b *Backend) handleSave(c echo.Context) error {
	var call SaveCall
	if err := c.Bind(&call); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saves = append(b.saves, call)
	if b.failSave {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "save failed"})
	}
	id := uuid.NewString()
	ts := b.tick()
	meta := call.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	b.records = append(b.records, map[string]any{
		"id":         id,
		"data":       call.Data,
		"user_id":    call.UserID,
		"metadata":   meta,
		"created_at": ts,
		"updated_at": ts,
	})
	return c.JSON(http.StatusOK, map[string]any{"id": id, "success": true})
}

func (b *Backend) handleList(c echo.Context) error {
	userID := c.Param("user_id")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.failList {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "list failed"})
	}
	out := make([]map[string]any, 0)
	for _, r := range b.records {
		if r["user_id"] == userID {
			out = append(out, r)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (b *Backend) handleGet(c echo.Context) error {
	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.records {
		if fmt.Sprint(r["id"]) == id {
			return c.JSON(http.StatusOK, r)
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "Memory not found"})
}

func (b *Backend) handleDelete(c echo.Context) error {
	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, id)
	if b.failDelete {
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "delete failed"})
	}
	for i, r := range b.records {
		if fmt.Sprint(r["id"]) == id {
			b.records = append(b.records[:i], b.records[i+1:]...)
			return c.JSON(http.StatusOK, map[string]any{"success": true})
		}
	}
	return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": "Memory not found"})
}

func (b *Backend) handleDeleteAll(c echo.Context) error {
	userID := c.Param("user_id")
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDelete {
		return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "delete failed"})
	}
	kept := b.records[:0]
	found := false
	for _, r := range b.records {
		if r["user_id"] == userID {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	b.records = kept
	if !found {
		return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": "User not found"})
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (b *Backend) handleSearch(c echo.Context) error {
	var req struct {
		Query  string `json:"query"`
		UserID string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Query is required"})
	}
	needle := strings.ToLower(req.Query)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]any, 0)
	for _, r := range b.records {
		if req.UserID != "" && r["user_id"] != req.UserID {
			continue
		}
		raw, _ := json.Marshal(r["data"])
		var msgs []struct {
			Content string `json:"content"`
		}
		if json.Unmarshal(raw, &msgs) != nil {
			continue
		}
		for _, m := range msgs {
			if strings.Contains(strings.ToLower(m.Content), needle) {
				out = append(out, r)
				break
			}
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (b *Backend) handleAnswer(c echo.Context) error {
	var call AskCall
	if err := c.Bind(&call); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	b.mu.Lock()
	b.asks = append(b.asks, call)
	fail := b.failAnswer
	answer := b.Answer
	b.mu.Unlock()

	if fail {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "generation failed"})
	}
	reply := call.Query
	if answer != nil {
		var err error
		reply, err = answer(call.Query)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"response": reply})
}
