package session

import "errors"

// ErrNoActiveChat indicates SendMessage was called without an active chat.
// Check with errors.Is().
var ErrNoActiveChat = errors.New("no active chat")

// Fixed user-facing error messages surfaced through State.Err. One message
// per failing operation; the underlying error goes to the log, not the UI.
const (
	msgFetchFailed   = "Unable to fetch chats. Please try again."
	msgCreateFailed  = "Failed to create chat. Please retry."
	msgSendFailed    = "Failed to send message. Please try again."
	msgDeleteFailed  = "Failed to delete chat. Please try again."
	msgHistoryFailed = "Unable to load conversation history."
	msgNoActiveChat  = "Please select or create a chat first."
)
