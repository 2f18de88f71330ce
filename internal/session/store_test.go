package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/gmunumel/market-mind/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Mock Remote
// ============================================================================

// mockRemote implements Remote for testing.
type mockRemote struct {
	// Error configuration
	chatsErr   error
	chatErr    error
	createErr  error
	sendErr    error
	deleteErr  error
	refreshErr error

	// Return values
	chatsResult   []Chat
	chatResult    Chat
	chatResults   map[string]Chat // per-id detail, takes precedence when set
	createResult  Chat
	sendResult    *ChatResponse
	refreshResult *TitleUpdate

	// Call tracking
	chatsCalls   int
	chatCalls    int
	createCalls  int
	sendCalls    int
	deleteCalls  int
	refreshCalls int

	lastChatID    string
	lastTitle     string
	lastContent   string
	lastDeletedID string
}

func (m *mockRemote) Chats(ctx context.Context) ([]Chat, error) {
	m.chatsCalls++
	if m.chatsErr != nil {
		return nil, m.chatsErr
	}
	return m.chatsResult, nil
}

func (m *mockRemote) Chat(ctx context.Context, chatID string) (Chat, error) {
	m.chatCalls++
	m.lastChatID = chatID
	if m.chatErr != nil {
		return Chat{}, m.chatErr
	}
	if c, ok := m.chatResults[chatID]; ok {
		return c, nil
	}
	return m.chatResult, nil
}

func (m *mockRemote) CreateChat(ctx context.Context, title string) (Chat, error) {
	m.createCalls++
	m.lastTitle = title
	if m.createErr != nil {
		return Chat{}, m.createErr
	}
	return m.createResult, nil
}

func (m *mockRemote) SendMessage(ctx context.Context, chatID, content string) (*ChatResponse, error) {
	m.sendCalls++
	m.lastChatID = chatID
	m.lastContent = content
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return m.sendResult, nil
}

func (m *mockRemote) DeleteChat(ctx context.Context, chatID string) error {
	m.deleteCalls++
	m.lastDeletedID = chatID
	return m.deleteErr
}

func (m *mockRemote) RefreshTitle(ctx context.Context, chatID string) (*TitleUpdate, error) {
	m.refreshCalls++
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.refreshResult, nil
}

func newTestStore(t *testing.T, remote *mockRemote) *Store {
	t.Helper()
	store, err := New(remote, ThemeLight, nil, log.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return store
}

func chatFixture(id, title string, messages ...Message) Chat {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Chat{ID: id, Title: title, CreatedAt: now, UpdatedAt: now, Messages: messages}
}

func messageFixture(id, role, content string) Message {
	return Message{
		ID:        id,
		Role:      role,
		Content:   content,
		CreatedAt: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}
}

// ============================================================================
// Constructor
// ============================================================================

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(nil, ThemeLight, nil, log.NewNop()); err == nil {
		t.Error("expected error for nil remote")
	}
	if _, err := New(&mockRemote{}, ThemeLight, nil, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestNew_InvalidThemeDefaultsToLight(t *testing.T) {
	store, err := New(&mockRemote{}, Theme("solarized"), nil, log.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := store.State().Theme; got != ThemeLight {
		t.Errorf("Theme = %q, want %q", got, ThemeLight)
	}
}

// ============================================================================
// FetchChats
// ============================================================================

func TestFetchChats_PreservesServerOrder(t *testing.T) {
	remote := &mockRemote{chatsResult: []Chat{
		chatFixture("a", "Alpha"),
		chatFixture("b", "Beta"),
		chatFixture("c", "Gamma"),
	}}
	// Listing omits message bodies
	for i := range remote.chatsResult {
		remote.chatsResult[i].Messages = nil
	}
	store := newTestStore(t, remote)

	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}

	state := store.State()
	wantOrder := []string{"a", "b", "c"}
	if len(state.Order) != len(wantOrder) {
		t.Fatalf("Order = %v, want %v", state.Order, wantOrder)
	}
	for i, id := range wantOrder {
		if state.Order[i] != id {
			t.Errorf("Order[%d] = %q, want %q", i, state.Order[i], id)
		}
	}
	if len(state.Chats) != 3 {
		t.Errorf("len(Chats) = %d, want 3", len(state.Chats))
	}
	for _, id := range wantOrder {
		chat, ok := state.Chats[id]
		if !ok {
			t.Errorf("Chats missing %q", id)
			continue
		}
		if chat.Messages == nil {
			t.Errorf("Chats[%q].Messages is nil, want empty slice", id)
		}
	}
	if state.Loading {
		t.Error("Loading = true after completion")
	}
}

func TestFetchChats_FailureLeavesStateUntouched(t *testing.T) {
	remote := &mockRemote{chatsResult: []Chat{chatFixture("a", "Alpha")}}
	store := newTestStore(t, remote)
	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}

	remote.chatsErr = errors.New("backend down")
	err := store.FetchChats(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	state := store.State()
	if len(state.Order) != 1 || state.Order[0] != "a" {
		t.Errorf("Order = %v, want [a]", state.Order)
	}
	if _, ok := state.Chats["a"]; !ok {
		t.Error("prior chat lost after failed fetch")
	}
	if state.Loading {
		t.Error("Loading = true after failure")
	}
	if state.Err == "" {
		t.Error("Err is empty after failure")
	}
}

// ============================================================================
// CreateChat
// ============================================================================

func TestCreateChat_FrontOfOrderAndActive(t *testing.T) {
	remote := &mockRemote{
		chatsResult:  []Chat{chatFixture("old", "Old")},
		createResult: chatFixture("x", "BTC"),
		chatResults:  map[string]Chat{"x": chatFixture("x", "BTC")},
	}
	store := newTestStore(t, remote)
	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}

	if err := store.CreateChat(context.Background(), "BTC"); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	state := store.State()
	if state.Order[0] != "x" {
		t.Errorf("Order[0] = %q, want %q", state.Order[0], "x")
	}
	if state.ActiveID != "x" {
		t.Errorf("ActiveID = %q, want %q", state.ActiveID, "x")
	}
	if remote.lastTitle != "BTC" {
		t.Errorf("title sent = %q, want %q", remote.lastTitle, "BTC")
	}
	// Creation reconciles via the selection path.
	if remote.chatCalls != 1 {
		t.Errorf("detail fetches = %d, want 1", remote.chatCalls)
	}
}

func TestCreateChat_DedupesExistingID(t *testing.T) {
	remote := &mockRemote{
		chatsResult:  []Chat{chatFixture("x", "Existing"), chatFixture("y", "Other")},
		createResult: chatFixture("x", "Existing"),
	}
	store := newTestStore(t, remote)
	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}

	if err := store.CreateChat(context.Background(), ""); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	state := store.State()
	if len(state.Order) != 2 {
		t.Fatalf("Order = %v, want 2 entries", state.Order)
	}
	if state.Order[0] != "x" || state.Order[1] != "y" {
		t.Errorf("Order = %v, want [x y]", state.Order)
	}
}

func TestCreateChat_FailureAddsNothing(t *testing.T) {
	remote := &mockRemote{createErr: errors.New("boom")}
	store := newTestStore(t, remote)

	err := store.CreateChat(context.Background(), "BTC")
	if err == nil {
		t.Fatal("expected error")
	}

	state := store.State()
	if len(state.Order) != 0 || len(state.Chats) != 0 {
		t.Errorf("partial chat added on failure: order=%v chats=%v", state.Order, state.Chats)
	}
	if state.ActiveID != "" {
		t.Errorf("ActiveID = %q, want empty", state.ActiveID)
	}
	if state.Err == "" {
		t.Error("Err is empty after failure")
	}
	if state.Loading {
		t.Error("Loading = true after failure")
	}
}

// ============================================================================
// SelectChat
// ============================================================================

func TestSelectChat_CacheHitSkipsRemote(t *testing.T) {
	remote := &mockRemote{}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["a"] = chatFixture("a", "Alpha",
		messageFixture("m1", RoleUser, "hi"),
		messageFixture("m2", RoleAssistant, "hello"))
	store.order = []string{"a"}
	store.mu.Unlock()

	if err := store.SelectChat(context.Background(), "a"); err != nil {
		t.Fatalf("SelectChat failed: %v", err)
	}

	if remote.chatCalls != 0 {
		t.Errorf("detail fetches = %d, want 0 (cache hit)", remote.chatCalls)
	}
	if got := store.State().ActiveID; got != "a" {
		t.Errorf("ActiveID = %q, want %q", got, "a")
	}
}

func TestSelectChat_LoadsHistoryAndMerges(t *testing.T) {
	detail := chatFixture("a", "Rates outlook",
		messageFixture("m1", RoleUser, "hi"),
		messageFixture("m2", RoleAssistant, "hello"))
	remote := &mockRemote{chatResult: detail}
	store := newTestStore(t, remote)
	store.mu.Lock()
	listed := chatFixture("a", "Rates outlook")
	listed.Messages = []Message{}
	store.chats["a"] = listed
	store.order = []string{"a"}
	store.mu.Unlock()

	if err := store.SelectChat(context.Background(), "a"); err != nil {
		t.Fatalf("SelectChat failed: %v", err)
	}

	state := store.State()
	chat := state.Chats["a"]
	if len(chat.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(chat.Messages))
	}
	// Meaningful title: no regeneration requested.
	if remote.refreshCalls != 0 {
		t.Errorf("title refreshes = %d, want 0", remote.refreshCalls)
	}
}

func TestSelectChat_PlaceholderTitleTriggersRefresh(t *testing.T) {
	detail := chatFixture("a", "Market Mind Chat",
		messageFixture("m1", RoleUser, "hi"),
		messageFixture("m2", RoleAssistant, "hello"))
	refreshed := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	remote := &mockRemote{
		chatResult:    detail,
		refreshResult: &TitleUpdate{Title: "Greeting basics", UpdatedAt: refreshed},
	}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["a"] = Chat{ID: "a", Messages: []Message{}}
	store.order = []string{"a"}
	store.mu.Unlock()

	if err := store.SelectChat(context.Background(), "a"); err != nil {
		t.Fatalf("SelectChat failed: %v", err)
	}

	if remote.refreshCalls != 1 {
		t.Fatalf("title refreshes = %d, want 1", remote.refreshCalls)
	}
	chat := store.State().Chats["a"]
	if chat.Title != "Greeting basics" {
		t.Errorf("Title = %q, want %q", chat.Title, "Greeting basics")
	}
	if !chat.UpdatedAt.Equal(refreshed) {
		t.Errorf("UpdatedAt = %v, want %v", chat.UpdatedAt, refreshed)
	}
}

func TestSelectChat_RefreshFailureIsSwallowed(t *testing.T) {
	detail := chatFixture("a", "", messageFixture("m1", RoleUser, "hi"))
	remote := &mockRemote{
		chatResult: detail,
		refreshErr: errors.New("title service down"),
	}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["a"] = Chat{ID: "a", Messages: []Message{}}
	store.order = []string{"a"}
	store.mu.Unlock()

	if err := store.SelectChat(context.Background(), "a"); err != nil {
		t.Fatalf("SelectChat failed: %v", err)
	}

	state := store.State()
	if state.Err != "" {
		t.Errorf("Err = %q, want empty (best-effort failure swallowed)", state.Err)
	}
	if len(state.Chats["a"].Messages) != 1 {
		t.Error("history merge lost after refresh failure")
	}
}

func TestSelectChat_DetailFailureKeepsSelection(t *testing.T) {
	remote := &mockRemote{chatErr: errors.New("boom")}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["a"] = Chat{ID: "a", Messages: []Message{}}
	store.order = []string{"a"}
	store.mu.Unlock()

	err := store.SelectChat(context.Background(), "a")
	if err == nil {
		t.Fatal("expected error")
	}

	state := store.State()
	if state.ActiveID != "a" {
		t.Errorf("ActiveID = %q, want %q (selection sticks)", state.ActiveID, "a")
	}
	if state.Err != msgHistoryFailed {
		t.Errorf("Err = %q, want %q", state.Err, msgHistoryFailed)
	}
}

// ============================================================================
// SendMessage
// ============================================================================

func TestSendMessage_AppendsUserThenAssistant(t *testing.T) {
	sentAt := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	repliedAt := sentAt.Add(2 * time.Second)
	resp := &ChatResponse{
		Message:    Message{ID: "m1", Role: RoleUser, Content: "Hi", CreatedAt: sentAt},
		AIResponse: Message{ID: "m2", Role: RoleAssistant, Content: "Hello", CreatedAt: repliedAt},
	}
	remote := &mockRemote{sendResult: resp, refreshErr: errors.New("skip")}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["3"] = Chat{ID: "3", Title: "T", Messages: []Message{}}
	store.order = []string{"3"}
	store.activeID = "3"
	store.mu.Unlock()

	got, err := store.SendMessage(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if got != resp {
		t.Error("SendMessage did not return the backend response")
	}
	if remote.lastChatID != "3" || remote.lastContent != "Hi" {
		t.Errorf("sent (%q, %q), want (3, Hi)", remote.lastChatID, remote.lastContent)
	}

	chat := store.State().Chats["3"]
	if len(chat.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(chat.Messages))
	}
	if chat.Messages[0].ID != "m1" || chat.Messages[1].ID != "m2" {
		t.Errorf("message order = [%s %s], want [m1 m2]", chat.Messages[0].ID, chat.Messages[1].ID)
	}
	if chat.Messages[1].Role != RoleAssistant {
		t.Errorf("second message role = %q, want %q", chat.Messages[1].Role, RoleAssistant)
	}
	if !chat.UpdatedAt.Equal(repliedAt) {
		t.Errorf("UpdatedAt = %v, want assistant timestamp %v", chat.UpdatedAt, repliedAt)
	}
}

func TestSendMessage_AppendsPairToExistingHistory(t *testing.T) {
	resp := &ChatResponse{
		Message:    messageFixture("m3", RoleUser, "more"),
		AIResponse: messageFixture("m4", RoleAssistant, "sure"),
	}
	remote := &mockRemote{sendResult: resp, refreshErr: errors.New("skip")}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["3"] = chatFixture("3", "T",
		messageFixture("m1", RoleUser, "hi"),
		messageFixture("m2", RoleAssistant, "hello"))
	store.order = []string{"3"}
	store.activeID = "3"
	store.mu.Unlock()

	if _, err := store.SendMessage(context.Background(), "more"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if got := len(store.State().Chats["3"].Messages); got != 4 {
		t.Errorf("len(Messages) = %d, want 4 (n+2)", got)
	}
}

func TestSendMessage_NoActiveChat(t *testing.T) {
	remote := &mockRemote{}
	store := newTestStore(t, remote)

	resp, err := store.SendMessage(context.Background(), "Hi")
	if !errors.Is(err, ErrNoActiveChat) {
		t.Errorf("err = %v, want ErrNoActiveChat", err)
	}
	if resp != nil {
		t.Error("expected nil response")
	}
	if remote.sendCalls != 0 {
		t.Errorf("sends = %d, want 0", remote.sendCalls)
	}
	if got := store.State().Err; got != msgNoActiveChat {
		t.Errorf("Err = %q, want %q", got, msgNoActiveChat)
	}
}

func TestSendMessage_BlankContentIsNoOp(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		remote := &mockRemote{}
		store := newTestStore(t, remote)
		store.mu.Lock()
		store.chats["3"] = Chat{ID: "3", Messages: []Message{}}
		store.order = []string{"3"}
		store.activeID = "3"
		store.err = "previous error"
		store.mu.Unlock()

		resp, err := store.SendMessage(context.Background(), content)
		if err != nil {
			t.Errorf("SendMessage(%q) error = %v, want nil", content, err)
		}
		if resp != nil {
			t.Errorf("SendMessage(%q) returned non-nil response", content)
		}
		if remote.sendCalls != 0 {
			t.Errorf("SendMessage(%q) made %d remote calls, want 0", content, remote.sendCalls)
		}
		if got := store.State().Err; got != "previous error" {
			t.Errorf("SendMessage(%q) changed Err to %q", content, got)
		}
	}
}

func TestSendMessage_FailureLeavesMessagesUntouched(t *testing.T) {
	remote := &mockRemote{sendErr: errors.New("boom")}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["3"] = chatFixture("3", "T", messageFixture("m1", RoleUser, "hi"))
	store.order = []string{"3"}
	store.activeID = "3"
	store.mu.Unlock()

	resp, err := store.SendMessage(context.Background(), "Hi")
	if err == nil {
		t.Fatal("expected error")
	}
	if resp != nil {
		t.Error("expected nil response")
	}

	state := store.State()
	if len(state.Chats["3"].Messages) != 1 {
		t.Errorf("len(Messages) = %d, want 1 (unchanged)", len(state.Chats["3"].Messages))
	}
	if state.Err != msgSendFailed {
		t.Errorf("Err = %q, want %q", state.Err, msgSendFailed)
	}
	if state.Loading {
		t.Error("Loading = true after failure")
	}
	// Title refresh only follows a successful send.
	if remote.refreshCalls != 0 {
		t.Errorf("title refreshes = %d, want 0", remote.refreshCalls)
	}
}

// ============================================================================
// DeleteChat
// ============================================================================

func TestDeleteChat_ReassignsActiveToFirstRemaining(t *testing.T) {
	remote := &mockRemote{
		chatResults: map[string]Chat{
			"y": chatFixture("y", "Y", messageFixture("m1", RoleUser, "hi")),
		},
	}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["x"] = Chat{ID: "x", Messages: []Message{}}
	store.chats["y"] = Chat{ID: "y", Messages: []Message{}}
	store.chats["z"] = Chat{ID: "z", Messages: []Message{}}
	store.order = []string{"x", "y", "z"}
	store.activeID = "x"
	store.mu.Unlock()

	if err := store.DeleteChat(context.Background(), "x"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}

	state := store.State()
	if len(state.Order) != 2 || state.Order[0] != "y" || state.Order[1] != "z" {
		t.Errorf("Order = %v, want [y z]", state.Order)
	}
	if state.ActiveID != "y" {
		t.Errorf("ActiveID = %q, want %q", state.ActiveID, "y")
	}
	if _, ok := state.Chats["x"]; ok {
		t.Error("deleted chat still present")
	}
	// New active had no cached messages: lazy load kicks in.
	if remote.chatCalls != 1 {
		t.Errorf("detail fetches = %d, want 1", remote.chatCalls)
	}
}

func TestDeleteChat_LastChatClearsActive(t *testing.T) {
	remote := &mockRemote{}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["x"] = Chat{ID: "x", Messages: []Message{}}
	store.order = []string{"x"}
	store.activeID = "x"
	store.mu.Unlock()

	if err := store.DeleteChat(context.Background(), "x"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}

	state := store.State()
	if state.ActiveID != "" {
		t.Errorf("ActiveID = %q, want empty", state.ActiveID)
	}
	if len(state.Order) != 0 || len(state.Chats) != 0 {
		t.Errorf("state not empty: order=%v chats=%v", state.Order, state.Chats)
	}
	if remote.chatCalls != 0 {
		t.Errorf("detail fetches = %d, want 0", remote.chatCalls)
	}
}

func TestDeleteChat_InactiveChatKeepsSelection(t *testing.T) {
	remote := &mockRemote{}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["x"] = Chat{ID: "x", Messages: []Message{}}
	store.chats["y"] = Chat{ID: "y", Messages: []Message{}}
	store.order = []string{"x", "y"}
	store.activeID = "y"
	store.mu.Unlock()

	if err := store.DeleteChat(context.Background(), "x"); err != nil {
		t.Fatalf("DeleteChat failed: %v", err)
	}

	state := store.State()
	if state.ActiveID != "y" {
		t.Errorf("ActiveID = %q, want %q", state.ActiveID, "y")
	}
	if remote.chatCalls != 0 {
		t.Errorf("detail fetches = %d, want 0 (selection unchanged)", remote.chatCalls)
	}
}

func TestDeleteChat_FailureMutatesNothing(t *testing.T) {
	remote := &mockRemote{deleteErr: errors.New("boom")}
	store := newTestStore(t, remote)
	store.mu.Lock()
	store.chats["x"] = Chat{ID: "x", Messages: []Message{}}
	store.order = []string{"x"}
	store.activeID = "x"
	store.mu.Unlock()

	err := store.DeleteChat(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}

	state := store.State()
	if len(state.Order) != 1 || state.ActiveID != "x" {
		t.Errorf("state mutated on failure: order=%v active=%q", state.Order, state.ActiveID)
	}
	if state.Err != msgDeleteFailed {
		t.Errorf("Err = %q, want %q", state.Err, msgDeleteFailed)
	}
}

// ============================================================================
// Theme
// ============================================================================

func TestToggleTheme_FlipsAndPersists(t *testing.T) {
	var persisted []Theme
	store, err := New(&mockRemote{}, ThemeLight, func(theme Theme) error {
		persisted = append(persisted, theme)
		return nil
	}, log.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got := store.ToggleTheme(); got != ThemeDark {
		t.Errorf("ToggleTheme = %q, want %q", got, ThemeDark)
	}
	if got := store.ToggleTheme(); got != ThemeLight {
		t.Errorf("ToggleTheme = %q, want %q", got, ThemeLight)
	}
	if len(persisted) != 2 || persisted[0] != ThemeDark || persisted[1] != ThemeLight {
		t.Errorf("persisted = %v, want [dark light]", persisted)
	}
}

func TestToggleTheme_PersistFailureDoesNotSurface(t *testing.T) {
	store, err := New(&mockRemote{}, ThemeLight, func(Theme) error {
		return errors.New("disk full")
	}, log.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got := store.ToggleTheme(); got != ThemeDark {
		t.Errorf("ToggleTheme = %q, want %q", got, ThemeDark)
	}
	if got := store.State().Err; got != "" {
		t.Errorf("Err = %q, want empty", got)
	}
}

// ============================================================================
// Subscription
// ============================================================================

func TestSubscribe_SignalsOnChange(t *testing.T) {
	remote := &mockRemote{chatsResult: []Chat{chatFixture("a", "Alpha")}}
	store := newTestStore(t, remote)

	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()

	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}

	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no change signal received")
	}
}

func TestSubscribe_UnsubscribeStopsSignals(t *testing.T) {
	store := newTestStore(t, &mockRemote{})

	updates, unsubscribe := store.Subscribe()
	unsubscribe()

	store.ToggleTheme()

	select {
	case <-updates:
		t.Error("received signal after unsubscribe")
	default:
	}
}

// ============================================================================
// Snapshot isolation
// ============================================================================

func TestState_SnapshotIsIsolated(t *testing.T) {
	store := newTestStore(t, &mockRemote{})
	store.mu.Lock()
	store.chats["a"] = chatFixture("a", "Alpha", messageFixture("m1", RoleUser, "hi"))
	store.order = []string{"a"}
	store.mu.Unlock()

	snap := store.State()
	snap.Order[0] = "tampered"
	chat := snap.Chats["a"]
	chat.Messages[0] = messageFixture("evil", RoleUser, "tampered")
	delete(snap.Chats, "a")

	state := store.State()
	if state.Order[0] != "a" {
		t.Error("snapshot mutation leaked into order")
	}
	if state.Chats["a"].Messages[0].ID != "m1" {
		t.Error("snapshot mutation leaked into messages")
	}
}

func TestState_EmptyHistoryStaysNonNil(t *testing.T) {
	remote := &mockRemote{chatsResult: []Chat{{ID: "a", Title: "Alpha"}}}
	store := newTestStore(t, remote)
	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}

	chat := store.State().Chats["a"]
	if chat.Messages == nil {
		t.Fatal("snapshot Messages is nil, want empty slice")
	}
	if len(chat.Messages) != 0 {
		t.Errorf("len(Messages) = %d, want 0", len(chat.Messages))
	}
}

// ============================================================================
// Scenarios
// ============================================================================

func TestScenario_EmptyStoreCreateFirstChat(t *testing.T) {
	remote := &mockRemote{
		chatsResult:  nil, // empty listing
		createResult: chatFixture("2", "BTC"),
		chatResults:  map[string]Chat{"2": chatFixture("2", "BTC")},
	}
	store := newTestStore(t, remote)

	if err := store.FetchChats(context.Background()); err != nil {
		t.Fatalf("FetchChats failed: %v", err)
	}
	if err := store.CreateChat(context.Background(), "BTC"); err != nil {
		t.Fatalf("CreateChat failed: %v", err)
	}

	state := store.State()
	if state.ActiveID != "2" {
		t.Errorf("ActiveID = %q, want %q", state.ActiveID, "2")
	}
	if _, ok := state.Chats["2"]; !ok {
		t.Error("Chats[2] not defined")
	}
	if len(state.Order) != 1 || state.Order[0] != "2" {
		t.Errorf("Order = %v, want [2]", state.Order)
	}
}

func TestNeedsTitleRefresh(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		messages int
		want     bool
	}{
		{"empty title with history", "", 2, true},
		{"placeholder title with history", "Market Mind Chat", 2, true},
		{"placeholder mixed case", "market mind chat #4", 1, true},
		{"real title", "Rates outlook", 2, false},
		{"empty title without history", "", 0, false},
		{"placeholder without history", "Market Mind Chat", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsTitleRefresh(tt.title, tt.messages); got != tt.want {
				t.Errorf("needsTitleRefresh(%q, %d) = %v, want %v",
					tt.title, tt.messages, got, tt.want)
			}
		})
	}
}
