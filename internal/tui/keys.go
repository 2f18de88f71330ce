package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Send        key.Binding
	NewChat     key.Binding
	DeleteChat  key.Binding
	ToggleTheme key.Binding
	SwitchPane  key.Binding
	Navigate    key.Binding
	Refresh     key.Binding
	Quit        key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Send:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewChat:     key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		DeleteChat:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "delete chat")),
		ToggleTheme: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		SwitchPane:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Navigate:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "select chat")),
		Refresh:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload chats")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		case 't':
			// Synchronous local flip; the subscription signal triggers the
			// snapshot refresh.
			m.store.ToggleTheme()
			return m, nil
		case 'n':
			if m.state.Loading {
				return m, nil // one operation at a time
			}
			return m, m.createChat()
		case 'r':
			if m.state.Loading {
				return m, nil
			}
			return m, m.fetchChats()
		case 'x':
			if m.state.Loading {
				return m, nil
			}
			if id := m.highlightedChat(); id != "" {
				return m, m.deleteChat(id)
			}
			return m, nil
		}
	}

	switch k.Code {
	case tea.KeyTab:
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
			return m, nil
		}
		m.focus = focusInput
		return m, m.input.Focus()

	case tea.KeyEnter:
		if m.focus == focusSidebar {
			if id := m.highlightedChat(); id != "" {
				m.focus = focusInput
				return m, tea.Batch(m.input.Focus(), m.selectChat(id))
			}
			return m, nil
		}
		// Shift+Enter inserts a newline via the textarea default.
		if k.Mod&tea.ModShift == 0 {
			return m.handleSubmit()
		}

	case tea.KeyUp:
		if m.focus == focusSidebar {
			if m.sidebarIdx > 0 {
				m.sidebarIdx--
			}
			return m, nil
		}

	case tea.KeyDown:
		if m.focus == focusSidebar {
			if m.sidebarIdx < len(m.state.Order)-1 {
				m.sidebarIdx++
			}
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// highlightedChat returns the chat id under the sidebar cursor, falling
// back to the active chat when the cursor has nothing to point at.
func (m *Model) highlightedChat() string {
	if m.focus == focusSidebar && m.sidebarIdx >= 0 && m.sidebarIdx < len(m.state.Order) {
		return m.state.Order[m.sidebarIdx]
	}
	return m.state.ActiveID
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now

	m.input.Reset()
	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	// The store treats blank input as a silent no-op and racing sends as a
	// caller bug; both are guarded here so the store's defenses stay the
	// backstop, not the UX.
	if m.state.Loading {
		return m, nil
	}
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	m.input.Reset()
	return m, m.sendMessage(content)
}
