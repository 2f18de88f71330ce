// Package session holds the client-side chat state and keeps it
// consistent with the Market Mind backend.
//
// The [Store] is the single state container for the process: all known
// chats, their display order, the active selection, an in-flight flag,
// the last user-facing error and the visual theme. Presentation code
// never mutates this state directly; it dispatches store commands and
// re-reads snapshots.
//
// Key operations:
//
//   - Chat lifecycle: [Store.FetchChats], [Store.CreateChat], [Store.SelectChat], [Store.DeleteChat]
//   - Conversation: [Store.SendMessage]
//   - Presentation: [Store.State], [Store.Subscribe], [Store.ToggleTheme]
//
// # Consistency model
//
// Message histories are loaded lazily on first selection and cached
// forever after: once non-empty they are never refetched or invalidated,
// trading staleness for fewer round trips. Primary mutations always
// commit before best-effort follow-ups (title regeneration) run, and a
// failed follow-up never rolls the primary back or surfaces an error.
//
// # Concurrency
//
// State mutations are atomic under an internal mutex, but the store does
// not serialize commands: two commands issued concurrently run their
// network calls concurrently and the later completion wins. The UI keeps
// this from happening by disabling triggers while State.Loading is true.
//
// # Local state
//
// [LoadUserID], [LoadTheme] and [SaveTheme] persist the caller identifier
// and theme preference to ~/.market-mind using atomic writes (temp file +
// rename) with file locking via [github.com/gofrs/flock].
package session
