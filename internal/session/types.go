package session

import "time"

// Role constants define valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Theme identifies the visual theme of the client.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// IsValid returns true if the theme is a known value.
func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Message is a single conversation message. Messages are immutable once
// created; the store only ever appends them.
type Message struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"` // "user" | "assistant"
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SearchResults extracts cited sources from assistant message metadata.
// Returns nil when the message carries no citations. Display concern only;
// the store never inspects metadata.
func (m Message) SearchResults() []string {
	raw, ok := m.Metadata["search_results"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var results []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			results = append(results, s)
		}
	}
	return results
}

// Chat is a conversation session. Messages is lazily populated: a chat
// known only from the listing endpoint has no messages until selected.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// ChatResponse is the backend's reply to a posted message: the persisted
// user message and the generated assistant response, in that order.
type ChatResponse struct {
	Message    Message `json:"message"`
	AIResponse Message `json:"ai_response"`
}

// TitleUpdate carries the regenerated title for a chat. The backend
// responds with the full session record; only these fields are merged.
type TitleUpdate struct {
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}
