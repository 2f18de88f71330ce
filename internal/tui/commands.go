package tui

import (
	tea "charm.land/bubbletea/v2"
)

// stateChangedMsg signals that the store's state may have changed and the
// snapshot should be re-read. Sent both by finished store commands and by
// the subscription listener.
type stateChangedMsg struct {
	// fromSubscription distinguishes the listener so Update can re-arm it.
	fromSubscription bool
}

// Store command dispatchers. Each runs one store command in a tea.Cmd
// goroutine; the command records its own outcome (including user-facing
// errors) in store state, so the only message needed back is "re-read the
// snapshot". Failures are already logged by the store.

func (m *Model) fetchChats() tea.Cmd {
	return func() tea.Msg {
		_ = m.store.FetchChats(m.ctx)
		return stateChangedMsg{}
	}
}

func (m *Model) createChat() tea.Cmd {
	return func() tea.Msg {
		_ = m.store.CreateChat(m.ctx, "")
		return stateChangedMsg{}
	}
}

func (m *Model) selectChat(chatID string) tea.Cmd {
	return func() tea.Msg {
		_ = m.store.SelectChat(m.ctx, chatID)
		return stateChangedMsg{}
	}
}

func (m *Model) sendMessage(content string) tea.Cmd {
	return func() tea.Msg {
		_, _ = m.store.SendMessage(m.ctx, content)
		return stateChangedMsg{}
	}
}

func (m *Model) deleteChat(chatID string) tea.Cmd {
	return func() tea.Msg {
		_ = m.store.DeleteChat(m.ctx, chatID)
		return stateChangedMsg{}
	}
}

// waitForUpdate blocks on the store's change channel and converts the next
// signal into a message. Re-armed by Update after every delivery; exits
// when the model context is canceled so the goroutine cannot leak.
func (m *Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			return stateChangedMsg{fromSubscription: true}
		case <-ctx.Done():
			return nil
		}
	}
}
