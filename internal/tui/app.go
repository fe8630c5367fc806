// Package tui is the interactive terminal client: a chat page, a list of saved
// conversations, and a read-only viewer, switched by a small router.
package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/memohai/memochat/internal/event"
	"github.com/memohai/memochat/internal/history"
	"github.com/memohai/memochat/internal/session"
	"github.com/memohai/memochat/internal/storage"
)

// Page identifies a routed screen.
type Page int

const (
	PageChat Page = iota
	PageConversations
	PageViewer
)

func (p Page) String() string {
	switch p {
	case PageConversations:
		return "conversations"
	case PageViewer:
		return "viewer"
	default:
		return "chat"
	}
}

// Options wires the model to the client services.
type Options struct {
	Session  *session.Controller
	History  *history.Browser
	Handoff  storage.KV
	Logger   *slog.Logger
	Markdown bool
}

type eventMsg struct{ event event.Event }

type loadedMsg struct{ err error }

type sentMsg struct{ err error }

type historyMsg struct{ err error }

type clearedMsg struct{ err error }

type deletedMsg struct {
	id  string
	err error
}

type handoffMsg struct {
	id  string
	err error
}

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	opts   Options
	logger *slog.Logger

	page   Page
	events <-chan event.Event
	cancel func()

	md   *markdown
	chat chatPage
	list listPage
	view viewerPage

	width  int
	height int
}

// New builds the root model. Close releases the event subscription.
func New(ctx context.Context, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "tui"))
	md := newMarkdown(log, opts.Markdown)
	md.setWidth(80)
	events, cancel := opts.Session.Subscribe()
	return &Model{
		ctx:    ctx,
		opts:   opts,
		logger: log,
		events: events,
		cancel: cancel,
		md:     md,
		chat:   newChatPage(opts.Session, md),
		list:   newListPage(opts.History),
		view:   newViewerPage(md),
		width:  80,
		height: 24,
	}
}

// Close stops listening to client events.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Page returns the active screen.
func (m *Model) Page() Page {
	return m.page
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(listen(m.events), m.loadSession(), m.chat.focus())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.md.setWidth(msg.Width - 4)
		m.chat.resize(msg.Width, msg.Height)
		m.view.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+n":
			return m, m.navigate(PageChat)
		case "ctrl+h":
			return m, m.navigate(PageConversations)
		case "esc":
			switch m.page {
			case PageViewer:
				return m, m.navigate(PageConversations)
			case PageConversations:
				if m.list.searching {
					break
				}
				return m, m.navigate(PageChat)
			}
		}

	case eventMsg:
		m.chat.sync()
		return m, listen(m.events)

	case loadedMsg, sentMsg:
		m.chat.sync()

	case historyMsg:
		m.list.done(msg.err)
		return m, nil

	case deletedMsg:
		m.list.deleted(msg.id, msg.err)
		return m, nil

	case clearedMsg:
		m.list.cleared(msg.err)
		return m, nil

	case handoffMsg:
		if msg.err != nil {
			m.list.status = "Could not open conversation: " + msg.err.Error()
			return m, nil
		}
		return m, m.navigate(PageViewer)
	}

	var cmd tea.Cmd
	switch m.page {
	case PageChat:
		cmd = m.chat.update(m, msg)
	case PageConversations:
		cmd = m.list.update(m, msg)
	case PageViewer:
		cmd = m.view.update(msg)
	}
	return m, cmd
}

func (m *Model) View() string {
	switch m.page {
	case PageConversations:
		return m.list.render(m.width)
	case PageViewer:
		return m.view.render()
	default:
		return m.chat.render(m.width)
	}
}

// navigate switches pages and runs the target's mount work.
func (m *Model) navigate(page Page) tea.Cmd {
	m.logger.Debug("navigate", slog.String("from", m.page.String()), slog.String("to", page.String()))
	m.page = page
	switch page {
	case PageChat:
		m.chat.sync()
		return m.chat.focus()
	case PageConversations:
		return m.refreshHistory()
	case PageViewer:
		if err := m.view.open(m.ctx, m.opts.Handoff); err != nil {
			m.logger.Debug("viewer redirect", slog.Any("error", err))
			m.page = PageConversations
			return m.refreshHistory()
		}
	}
	return nil
}

func (m *Model) loadSession() tea.Cmd {
	ctx, ctrl := m.ctx, m.opts.Session
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

func (m *Model) send(text string) tea.Cmd {
	ctx, ctrl := m.ctx, m.opts.Session
	return func() tea.Msg {
		_, err := ctrl.Send(ctx, text)
		return sentMsg{err: err}
	}
}

func (m *Model) refreshHistory() tea.Cmd {
	ctx, browser := m.ctx, m.opts.History
	m.list.loading = true
	return func() tea.Msg {
		return historyMsg{err: browser.Refresh(ctx)}
	}
}

func (m *Model) searchHistory(query string) tea.Cmd {
	ctx, browser := m.ctx, m.opts.History
	m.list.loading = true
	return func() tea.Msg {
		return historyMsg{err: browser.Search(ctx, query)}
	}
}

func (m *Model) deleteConversation(id string) tea.Cmd {
	ctx, browser := m.ctx, m.opts.History
	return func() tea.Msg {
		return deletedMsg{id: id, err: browser.Delete(ctx, id)}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	ctx, browser := m.ctx, m.opts.History
	return func() tea.Msg {
		return clearedMsg{err: browser.Clear(ctx)}
	}
}

func (m *Model) viewConversation(id string) tea.Cmd {
	ctx, browser := m.ctx, m.opts.History
	return func() tea.Msg {
		_, err := browser.View(ctx, id)
		return handoffMsg{id: id, err: err}
	}
}

func listen(events <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
