// Package tui provides the Bubble Tea terminal interface for Market Mind.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/gmunumel/market-mind/internal/log"
	"github.com/gmunumel/market-mind/internal/session"
)

// focus identifies which pane receives key input.
type focus int

// Focusable panes.
const (
	focusInput   focus = iota // textarea at the bottom
	focusSidebar              // chat list on the left
)

// inputPlaceholder mirrors the suggestions shown on the welcome screen.
const inputPlaceholder = "Ask for a market summary, risk analysis, or sentiment check..."

// Layout constants for viewport height calculation.
const (
	sidebarWidth   = 30 // Fixed sidebar width including borders
	separatorLines = 2  // Separator lines above and below input
	helpLines      = 1  // Help bar height
	errorLines     = 1  // Error line above the help bar
	promptLines    = 1  // Prompt prefix line
	minViewport    = 3  // Minimum viewport height
)

// Model is the Bubble Tea model for the Market Mind terminal interface.
//
// The model never mutates chat state itself: key handlers dispatch store
// commands as tea.Cmds and the view re-reads store snapshots. A
// subscription channel picks up changes that land outside a command's
// return path, such as a best-effort title refresh completing late.
type Model struct {
	store  *session.Store
	logger log.Logger

	// Latest store snapshot; refreshed on every state change signal.
	state session.State

	// Input
	input textarea.Model

	// Panes
	focus      focus
	sidebarIdx int // highlighted row in the sidebar

	// Output
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Store change notification
	updates     <-chan struct{}
	unsubscribe func()

	ctx       context.Context
	ctxCancel context.CancelFunc
	lastCtrlC time.Time

	// Dimensions
	width  int
	height int

	// Styles (switched with the theme)
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// New creates a Model bound to a session store.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// to ensure consistent cancellation behavior.
func New(ctx context.Context, store *session.Store, logger log.Logger) (*Model, error) {
	if store == nil {
		return nil, errors.New("tui.New: store is required")
	}
	if logger == nil {
		return nil, errors.New("tui.New: logger is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}

	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = inputPlaceholder
	ta.SetHeight(1)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	// No background colors, just simple text
	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Viewport keys are routed explicitly in handleKey to avoid conflicts
	// with textarea and sidebar navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	state := store.State()
	updates, unsubscribe := store.Subscribe()

	return &Model{
		store:       store,
		logger:      logger,
		state:       state,
		input:       ta,
		spinner:     sp,
		viewport:    vp,
		help:        help.New(),
		keys:        newKeyMap(),
		updates:     updates,
		unsubscribe: unsubscribe,
		ctx:         ctx,
		ctxCancel:   cancel,
		styles:      StylesFor(state.Theme),
		markdown:    newMarkdownRenderer(80, state.Theme),
		width:       80, // Default width until WindowSizeMsg arrives
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		m.fetchChats(),
		m.waitForUpdate(),
	)
}

// refresh pulls a fresh snapshot from the store and reconciles everything
// derived from it: theme styles, sidebar cursor, viewport content.
func (m *Model) refresh() {
	prevTheme := m.state.Theme
	prevActive := m.state.ActiveID
	m.state = m.store.State()

	if m.state.Theme != prevTheme {
		m.styles = StylesFor(m.state.Theme)
		m.markdown = newMarkdownRenderer(m.messageWidth(), m.state.Theme)
	}

	// Keep the sidebar cursor on the active chat when the selection moved
	// under us (creation, deletion reassignment).
	if m.state.ActiveID != prevActive {
		m.sidebarIdx = m.activeIndex()
	}
	if m.sidebarIdx >= len(m.state.Order) {
		m.sidebarIdx = len(m.state.Order) - 1
	}
	if m.sidebarIdx < 0 {
		m.sidebarIdx = 0
	}

	m.rebuildViewportContent()
	m.viewport.GotoBottom()
}

// activeIndex returns the order index of the active chat, or 0.
func (m *Model) activeIndex() int {
	for i, id := range m.state.Order {
		if id == m.state.ActiveID {
			return i
		}
	}
	return 0
}

// messageWidth returns the width available to rendered message content.
func (m *Model) messageWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

// cleanup releases the subscription and cancels in-flight operations.
func (m *Model) cleanup() tea.Cmd {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	if m.ctxCancel != nil {
		m.ctxCancel()
	}
	return tea.Quit
}
