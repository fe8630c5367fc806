// Package session owns the active chat transcript: it resumes the latest saved
// snapshot, appends turns, asks the answer service, and persists every change
// as a new snapshot.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/memohai/memochat/internal/answer"
	"github.com/memohai/memochat/internal/conversation"
	"github.com/memohai/memochat/internal/event"
	"github.com/memohai/memochat/internal/memory"
)

// State is the controller lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateSending State = "sending"
)

const (
	// FallbackReply replaces an empty answer.
	FallbackReply = "Sorry, I couldn't process that request."
	// ErrorReply is shown as the assistant turn when answer generation fails.
	ErrorReply = "Sorry, an error occurred. Please try again."
)

var (
	// ErrEmptyInput is returned by Send for blank text.
	ErrEmptyInput = errors.New("message is empty")
	// ErrBusy is returned while a load or send is in flight. Sends are not queued.
	ErrBusy = errors.New("session is busy")
)

// Notifier is the hub the controller publishes to and views subscribe on.
type Notifier interface {
	event.Publisher
	event.Subscriber
}

// Controller is the conversation state container for one user.
type Controller struct {
	userID   string
	store    memory.Store
	answerer answer.Answerer
	hub      Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	messages []conversation.Message
	lastErr  error
}

// NewController creates an idle controller for userID.
func NewController(log *slog.Logger, userID string, store memory.Store, answerer answer.Answerer, hub Notifier) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		userID:   strings.TrimSpace(userID),
		store:    store,
		answerer: answerer,
		hub:      hub,
		logger:   log.With(slog.String("service", "session"), slog.String("user_id", userID)),
		state:    StateIdle,
	}
}

// UserID returns the identity this session persists under.
func (c *Controller) UserID() string {
	return c.userID
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether input should be disabled.
func (c *Controller) Busy() bool {
	state := c.State()
	return state == StateLoading || state == StateSending
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []conversation.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return conversation.Append(c.messages)
}

// LastError returns the error of the most recent failed answer, load, or
// persist, cleared by the next successful turn.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Subscribe registers for this user's change notifications. Only the newest
// pending event is kept, so the final state change of a turn is never lost.
func (c *Controller) Subscribe() (<-chan event.Event, func()) {
	if c.hub == nil {
		ch := make(chan event.Event)
		close(ch)
		return ch, func() {}
	}
	return c.hub.Subscribe(c.userID)
}

// Load resumes the most recent saved snapshot for the user. Records are not
// merged; the one with the latest created_at wins. On failure the session
// stays usable with an empty transcript and the error is only logged and returned.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateLoading || c.state == StateSending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StateLoading
	c.mu.Unlock()
	c.publish(event.TypeStateChanged, StateLoading)

	records, err := c.store.List(ctx, c.userID)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
	} else if latest, ok := conversation.Latest(records); ok {
		c.messages = conversation.Append(latest.Data)
	}
	c.state = StateReady
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("load memory failed", slog.Any("error", err))
	} else {
		c.logger.Debug("memory loaded", slog.Int("records", len(records)))
	}
	c.publish(event.TypeTranscriptChanged, StateReady)
	c.publish(event.TypeStateChanged, StateReady)
	return err
}

// Send appends the user's text, asks for a reply, appends it (or a fixed
// fallback/error message), and persists the whole transcript as a new
// snapshot. The user message is visible before the answer request starts.
// The returned error is only ErrEmptyInput or ErrBusy; answer and persist
// failures are reflected in the transcript and the log.
func (c *Controller) Send(ctx context.Context, text string) (conversation.Message, error) {
	if strings.TrimSpace(text) == "" {
		return conversation.Message{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.state == StateLoading || c.state == StateSending {
		c.mu.Unlock()
		return conversation.Message{}, ErrBusy
	}
	c.messages = conversation.Append(c.messages, conversation.UserMessage(text))
	c.state = StateSending
	c.mu.Unlock()
	c.publish(event.TypeTranscriptChanged, StateSending)
	c.publish(event.TypeStateChanged, StateSending)

	reply, askErr := c.answerer.Ask(ctx, text)
	var assistant conversation.Message
	switch {
	case askErr != nil:
		c.logger.Error("get answer failed", slog.Any("error", askErr))
		assistant = conversation.AssistantMessage(ErrorReply)
	case reply == "":
		assistant = conversation.AssistantMessage(FallbackReply)
	default:
		assistant = conversation.AssistantMessage(reply)
	}

	c.mu.Lock()
	c.messages = conversation.Append(c.messages, assistant)
	transcript := conversation.Append(c.messages)
	c.lastErr = askErr
	c.mu.Unlock()
	c.publish(event.TypeTranscriptChanged, StateSending)

	// Persist even if the caller gave up on the answer.
	if err := c.persist(context.WithoutCancel(ctx), transcript); err != nil {
		c.mu.Lock()
		if c.lastErr == nil {
			c.lastErr = err
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()
	c.publish(event.TypeStateChanged, StateReady)
	return assistant, nil
}

// Reset starts a new conversation: the in-memory transcript is cleared and the
// next send begins a fresh snapshot chain. Saved records are untouched.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.state == StateLoading || c.state == StateSending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.messages = nil
	c.lastErr = nil
	if c.state == StateIdle {
		c.state = StateReady
	}
	c.mu.Unlock()
	c.publish(event.TypeTranscriptChanged, StateReady)
	return nil
}

func (c *Controller) persist(ctx context.Context, transcript []conversation.Message) error {
	_, err := c.store.Save(ctx, memory.SaveRequest{
		Data:     transcript,
		UserID:   c.userID,
		Metadata: conversation.ChatHistoryMetadata(),
	})
	if err != nil {
		c.logger.Error("save memory failed", slog.Any("error", err), slog.Int("messages", len(transcript)))
		return err
	}
	return nil
}

func (c *Controller) publish(typ event.Type, state State) {
	if c.hub == nil {
		return
	}
	c.hub.Publish(event.Event{Type: typ, UserID: c.userID, State: string(state)})
}
