// Package api provides the HTTP client for the Market Mind backend.
//
// The client is deliberately thin: JSON over HTTP, one method per backend
// operation, a fixed transport timeout, no retries and no caching. Every
// request carries the opaque caller identifier in the X-User-Id header.
// All failures propagate to the caller; the session store decides what to
// surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gmunumel/market-mind/internal/log"
	"github.com/gmunumel/market-mind/internal/session"
)

// DefaultTimeout bounds every request when config specifies none. Generous
// on purpose: assistant replies can take a while to generate.
const DefaultTimeout = 15 * time.Second

// userIDHeader identifies the installation to the backend.
const userIDHeader = "X-User-Id"

// maxErrorBody caps how much of an error response body is read for the
// error message.
const maxErrorBody = 2048

// Client talks to the Market Mind backend. It is stateless beyond the
// base URL and caller identifier and is safe for concurrent use.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
	logger     log.Logger
}

// New creates a backend client.
//
// baseURL is the backend root (e.g. "http://localhost:8000"), userID the
// persisted caller identifier. A non-positive timeout selects
// DefaultTimeout.
func New(baseURL, userID string, timeout time.Duration, logger log.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("api.New: base URL is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("api.New: user ID is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("api.New: logger is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("api.New: invalid base URL %q: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Chats lists all chat sessions, most recently updated first. Message
// bodies are omitted by the backend.
func (c *Client) Chats(ctx context.Context) ([]session.Chat, error) {
	var chats []session.Chat
	if err := c.do(ctx, http.MethodGet, "/chats", nil, &chats); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// Chat fetches one chat session including its full message history.
func (c *Client) Chat(ctx context.Context, chatID string) (session.Chat, error) {
	var chat session.Chat
	if err := c.do(ctx, http.MethodGet, "/chats/"+url.PathEscape(chatID), nil, &chat); err != nil {
		return session.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	return chat, nil
}

// CreateChat creates a chat session. An empty title lets the backend
// assign its default.
func (c *Client) CreateChat(ctx context.Context, title string) (session.Chat, error) {
	body := struct {
		Title string `json:"title,omitempty"`
	}{Title: title}

	var chat session.Chat
	if err := c.do(ctx, http.MethodPost, "/chats", body, &chat); err != nil {
		return session.Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// SendMessage posts user content to a chat and returns the persisted user
// message together with the generated assistant reply.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (*session.ChatResponse, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}

	var resp session.ChatResponse
	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	return &resp, nil
}

// DeleteChat removes a chat session.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	if err := c.do(ctx, http.MethodDelete, "/chats/"+url.PathEscape(chatID), nil, nil); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

// RefreshTitle asks the backend to regenerate a chat's title from its
// conversation history. The backend responds with the updated session
// record; only title and updated_at are decoded.
func (c *Client) RefreshTitle(ctx context.Context, chatID string) (*session.TitleUpdate, error) {
	var upd session.TitleUpdate
	path := "/chats/" + url.PathEscape(chatID) + "/title"
	if err := c.do(ctx, http.MethodPost, path, nil, &upd); err != nil {
		return nil, fmt.Errorf("refresh title: %w", err)
	}
	return &upd, nil
}

// do performs one JSON request. body and result may be nil; non-2xx
// responses become errors carrying the backend's message.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(userIDHeader, c.userID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("backend request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode)
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if result == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
