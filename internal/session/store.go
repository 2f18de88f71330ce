package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gmunumel/market-mind/internal/log"
)

// placeholderTitle marks backend-assigned default titles that should be
// replaced by a generated one once the chat has history.
const placeholderTitle = "market mind chat"

// Remote is the backend contract consumed by the Store. internal/api
// provides the production implementation; tests substitute a mock.
type Remote interface {
	// Chats lists all sessions without message bodies.
	Chats(ctx context.Context) ([]Chat, error)
	// Chat fetches one session including its full message history.
	Chat(ctx context.Context, chatID string) (Chat, error)
	// CreateChat creates a session. Empty title lets the backend assign one.
	CreateChat(ctx context.Context, title string) (Chat, error)
	// SendMessage posts user content and returns the persisted user
	// message together with the generated assistant reply.
	SendMessage(ctx context.Context, chatID, content string) (*ChatResponse, error)
	// DeleteChat removes a session.
	DeleteChat(ctx context.Context, chatID string) error
	// RefreshTitle asks the backend to regenerate the session title.
	RefreshTitle(ctx context.Context, chatID string) (*TitleUpdate, error)
}

// State is a point-in-time snapshot of the store. Snapshots are deep
// copies at the container level; Message values are immutable and may be
// shared between snapshots.
type State struct {
	Chats    map[string]Chat
	Order    []string // display order, most recent first after creation
	ActiveID string   // empty when no chat is active
	Loading  bool     // one global in-flight flag, not per-chat
	Err      string   // last user-facing error, cleared on next operation
	Theme    Theme
}

// Active returns the active chat and whether one is set.
func (s State) Active() (Chat, bool) {
	if s.ActiveID == "" {
		return Chat{}, false
	}
	c, ok := s.Chats[s.ActiveID]
	return c, ok
}

// Store owns the client-side session state and keeps it consistent with
// the backend across create, select, send, delete and title-refresh
// operations.
//
// Mutations are atomic: the mutex is held only while state is read or
// written, never across a network call. Overlapping commands therefore
// race on completion order rather than queue; callers are expected to
// disable triggers while Loading is true. Once a chat's messages are
// loaded they are never refetched or invalidated (cache-is-authoritative).
type Store struct {
	remote  Remote
	logger  log.Logger
	persist func(Theme) error // nil = theme not persisted

	mu       sync.RWMutex
	chats    map[string]Chat
	order    []string
	activeID string
	loading  bool
	err      string
	theme    Theme

	subs    map[uint64]chan struct{}
	nextSub uint64
}

// New creates a Store. persist is invoked synchronously whenever the theme
// changes and may be nil; its failures are logged, never surfaced.
func New(remote Remote, theme Theme, persist func(Theme) error, logger log.Logger) (*Store, error) {
	if remote == nil {
		return nil, fmt.Errorf("session.New: remote is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("session.New: logger is required")
	}
	if !theme.IsValid() {
		theme = ThemeLight
	}
	return &Store{
		remote:  remote,
		logger:  logger,
		persist: persist,
		chats:   make(map[string]Chat),
		theme:   theme,
		subs:    make(map[uint64]chan struct{}),
	}, nil
}

// State returns a snapshot of the current store state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats := make(map[string]Chat, len(s.chats))
	for id, c := range s.chats {
		// Copy without losing the non-nil empty-history default.
		if c.Messages != nil {
			c.Messages = append([]Message{}, c.Messages...)
		}
		chats[id] = c
	}
	return State{
		Chats:    chats,
		Order:    append([]string(nil), s.order...),
		ActiveID: s.activeID,
		Loading:  s.loading,
		Err:      s.err,
		Theme:    s.theme,
	}
}

// Subscribe registers a change listener. The returned channel receives a
// signal (coalesced, buffer of one) after every state change; the returned
// function unregisters the listener.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// notify signals all subscribers without blocking. A subscriber that has
// not drained its channel keeps the single pending signal.
func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// begin marks an operation in flight and clears the previous error.
func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
	s.notify()
}

// fail records a user-facing error message and ends the operation without
// touching committed state.
func (s *Store) fail(msg string) {
	s.mu.Lock()
	s.err = msg
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// FetchChats replaces the chat list wholesale with the backend's listing,
// preserving server order. Message histories are not fetched; chats start
// with empty histories until selected. On failure prior state is kept.
func (s *Store) FetchChats(ctx context.Context) error {
	s.begin()

	listed, err := s.remote.Chats(ctx)
	if err != nil {
		s.logger.Error("fetch chats failed", "error", err)
		s.fail(msgFetchFailed)
		return fmt.Errorf("fetch chats: %w", err)
	}

	s.mu.Lock()
	chats := make(map[string]Chat, len(listed))
	order := make([]string, 0, len(listed))
	for _, c := range listed {
		if c.Messages == nil {
			c.Messages = []Message{}
		}
		chats[c.ID] = c
		order = append(order, c.ID)
	}
	s.chats = chats
	s.order = order
	s.loading = false
	s.mu.Unlock()
	s.notify()

	return nil
}

// CreateChat creates a chat, places it at the front of the order, makes it
// active and reconciles server-assigned fields via the selection path. On
// failure no partial chat is added.
func (s *Store) CreateChat(ctx context.Context, title string) error {
	s.begin()

	chat, err := s.remote.CreateChat(ctx, title)
	if err != nil {
		s.logger.Error("create chat failed", "error", err)
		s.fail(msgCreateFailed)
		return fmt.Errorf("create chat: %w", err)
	}

	s.mu.Lock()
	chat.Messages = []Message{}
	s.chats[chat.ID] = chat
	order := make([]string, 0, len(s.order)+1)
	order = append(order, chat.ID)
	for _, id := range s.order {
		if id != chat.ID { // dedupe defensively
			order = append(order, id)
		}
	}
	s.order = order
	s.activeID = chat.ID
	s.loading = false
	s.mu.Unlock()
	s.notify()

	// Reconcile with server-rendered fields (default title, timestamps).
	// Selection failure is recorded in State.Err, not returned: the chat
	// itself was created.
	if err := s.SelectChat(ctx, chat.ID); err != nil {
		s.logger.Warn("post-create selection failed", "chat_id", chat.ID, "error", err)
	}
	return nil
}

// SelectChat makes chatID the active chat. The switch is synchronous so
// the UI flips immediately while history loads. If the chat already has
// messages cached, no network call is made. A fetched chat with a
// placeholder title and at least one message additionally gets a
// best-effort title refresh.
func (s *Store) SelectChat(ctx context.Context, chatID string) error {
	s.mu.Lock()
	s.activeID = chatID
	s.err = ""
	cached, ok := s.chats[chatID]
	s.mu.Unlock()
	s.notify()

	if ok && len(cached.Messages) > 0 {
		return nil // cache hit, never refetch
	}

	detailed, err := s.remote.Chat(ctx, chatID)
	if err != nil {
		s.logger.Error("load history failed", "chat_id", chatID, "error", err)
		// Active selection stays on the (message-less) chat.
		s.mu.Lock()
		s.err = msgHistoryFailed
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("load history: %w", err)
	}

	s.mu.Lock()
	detailed.ID = chatID
	if detailed.Messages == nil {
		detailed.Messages = []Message{}
	}
	s.chats[chatID] = detailed
	s.mu.Unlock()
	s.notify()

	if needsTitleRefresh(detailed.Title, len(detailed.Messages)) {
		s.refreshTitle(ctx, chatID)
	}
	return nil
}

// SendMessage posts content to the active chat and appends the returned
// user/assistant message pair. Returns the backend response, or nil when
// nothing was sent: no active chat (error) or blank content (silent no-op).
func (s *Store) SendMessage(ctx context.Context, content string) (*ChatResponse, error) {
	s.mu.Lock()
	chatID := s.activeID
	if chatID == "" {
		s.err = msgNoActiveChat
		s.mu.Unlock()
		s.notify()
		return nil, ErrNoActiveChat
	}
	s.mu.Unlock()

	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	s.begin()

	resp, err := s.remote.SendMessage(ctx, chatID, content)
	if err != nil {
		s.logger.Error("send message failed", "chat_id", chatID, "error", err)
		s.fail(msgSendFailed)
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.mu.Lock()
	if chat, ok := s.chats[chatID]; ok {
		chat.Messages = append(chat.Messages, resp.Message, resp.AIResponse)
		chat.UpdatedAt = resp.AIResponse.CreatedAt
		s.chats[chatID] = chat
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()

	// Committed first, enhanced after: the title refresh never rolls back
	// or blocks the appended messages.
	s.refreshTitle(ctx, chatID)

	return resp, nil
}

// DeleteChat removes a chat. If it was active, the first remaining chat
// becomes active and its history is lazily loaded; with no chats left the
// selection is cleared.
func (s *Store) DeleteChat(ctx context.Context, chatID string) error {
	s.begin()

	if err := s.remote.DeleteChat(ctx, chatID); err != nil {
		s.logger.Error("delete chat failed", "chat_id", chatID, "error", err)
		s.fail(msgDeleteFailed)
		return fmt.Errorf("delete chat: %w", err)
	}

	s.mu.Lock()
	delete(s.chats, chatID)
	order := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if id != chatID {
			order = append(order, id)
		}
	}
	s.order = order

	var reassigned string
	if s.activeID == chatID {
		s.activeID = ""
		if len(order) > 0 {
			s.activeID = order[0]
		}
		reassigned = s.activeID
	}
	needsLoad := reassigned != "" && len(s.chats[reassigned].Messages) == 0
	s.loading = false
	s.mu.Unlock()
	s.notify()

	if needsLoad {
		if err := s.SelectChat(ctx, reassigned); err != nil {
			s.logger.Warn("post-delete selection failed", "chat_id", reassigned, "error", err)
		}
	}
	return nil
}

// ToggleTheme flips between light and dark, persists the preference and
// returns the new theme. Cannot fail; persistence errors are only logged.
func (s *Store) ToggleTheme() Theme {
	s.mu.Lock()
	next := ThemeLight
	if s.theme == ThemeLight {
		next = ThemeDark
	}
	s.theme = next
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist(next); err != nil {
			s.logger.Warn("persist theme failed", "theme", next, "error", err)
		}
	}
	s.notify()
	return next
}

// refreshTitle asks the backend for a regenerated title and merges it in.
// Best effort: failures are logged and never reach State.Err, and the
// merge is skipped if the chat disappeared meanwhile.
func (s *Store) refreshTitle(ctx context.Context, chatID string) {
	upd, err := s.remote.RefreshTitle(ctx, chatID)
	if err != nil {
		s.logger.Debug("title refresh failed", "chat_id", chatID, "error", err)
		return
	}

	s.mu.Lock()
	if chat, ok := s.chats[chatID]; ok {
		chat.Title = upd.Title
		chat.UpdatedAt = upd.UpdatedAt
		s.chats[chatID] = chat
	}
	s.mu.Unlock()
	s.notify()
}

// needsTitleRefresh reports whether a fetched chat should get a generated
// title: no meaningful title yet, and at least one message to derive one
// from.
func needsTitleRefresh(title string, messageCount int) bool {
	if messageCount == 0 {
		return false
	}
	return title == "" || strings.Contains(strings.ToLower(title), placeholderTitle)
}
