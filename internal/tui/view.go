package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/gmunumel/market-mind/internal/session"
)

// View implements tea.Model.
// Layout: chat sidebar on the left, conversation viewport plus input on
// the right, error line and help bar across the bottom.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	right := m.renderMainColumn()
	left := m.renderSidebar(lipgloss.Height(right))

	_, _ = m.viewBuf.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	_, _ = m.viewBuf.WriteString("\n")
	_, _ = m.viewBuf.WriteString(m.renderErrorLine())
	_, _ = m.viewBuf.WriteString("\n")
	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// renderMainColumn builds the viewport, separators and input prompt.
func (m *Model) renderMainColumn() string {
	var b strings.Builder

	_, _ = b.WriteString(m.viewport.View())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.renderSeparator())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.Prompt.Render("> "))
	_, _ = b.WriteString(m.input.View())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.renderSeparator())

	return b.String()
}

// renderSidebar builds the chat list pane.
func (m *Model) renderSidebar(height int) string {
	var b strings.Builder

	_, _ = b.WriteString(m.styles.SidebarTitle.Render("Chats"))
	_, _ = b.WriteString("\n\n")

	if len(m.state.Order) == 0 {
		_, _ = b.WriteString(m.styles.SidebarItem.Render("(none yet — ctrl+n)"))
		_, _ = b.WriteString("\n")
	}

	for i, id := range m.state.Order {
		chat := m.state.Chats[id]
		title := chat.Title
		if title == "" {
			title = "Untitled chat"
		}
		title = truncate(title, sidebarWidth-6)

		marker := "  "
		style := m.styles.SidebarItem
		if id == m.state.ActiveID {
			marker = "● "
			style = m.styles.SidebarActive
		}
		if m.focus == focusSidebar && i == m.sidebarIdx {
			marker = "> "
			style = m.styles.SidebarCursor
		}
		_, _ = b.WriteString(style.Render(marker + title))
		_, _ = b.WriteString("\n")
	}

	pane := lipgloss.NewStyle().
		Width(sidebarWidth - 2).
		Height(max(height, 1)).
		MarginRight(1).
		Render(b.String())
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(m.styles.Separator.GetForeground()).
		Render(pane)
}

// rebuildViewportContent reconstructs the viewport content from the store
// snapshot. Called on every state change and on resize.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	active, ok := m.state.Active()
	if !ok {
		_, _ = b.WriteString(m.styles.RenderBanner())
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.styles.RenderWelcomeTips())
		m.viewport.SetContent(b.String())
		return
	}

	for _, msg := range active.Messages {
		switch msg.Role {
		case session.RoleUser:
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Content)
		case session.RoleAssistant:
			_, _ = b.WriteString(m.styles.Assistant.Render("Mind> "))
			_, _ = b.WriteString(m.markdown.Render(msg.Content))
			if sources := msg.SearchResults(); len(sources) > 0 {
				_, _ = b.WriteString("\n")
				_, _ = b.WriteString(m.styles.Sources.Render(renderSources(sources)))
			}
		default:
			_, _ = b.WriteString(m.styles.System.Render(msg.Content))
		}
		_, _ = b.WriteString("\n\n")
	}

	if m.state.Loading {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}

	m.viewport.SetContent(b.String())
}

// renderSources formats the citation block under an assistant reply.
// Only the first three citations are shown, matching the compact layout.
func renderSources(sources []string) string {
	var b strings.Builder
	_, _ = b.WriteString("Sources:")
	for i, src := range sources {
		if i == 3 {
			break
		}
		_, _ = b.WriteString("\n  • ")
		_, _ = b.WriteString(src)
	}
	return b.String()
}

// renderErrorLine shows the store's last error, or nothing.
func (m *Model) renderErrorLine() string {
	if m.state.Err == "" {
		return ""
	}
	return m.styles.Error.Render(m.state.Err)
}

// renderSeparator returns a horizontal line sized to the main column.
func (m *Model) renderSeparator() string {
	width := max(m.width-sidebarWidth, 20)
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns pane-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	if m.focus == focusSidebar {
		bindings = []key.Binding{
			m.keys.Navigate, m.keys.Send, m.keys.DeleteChat,
			m.keys.SwitchPane, m.keys.ToggleTheme, m.keys.Quit,
		}
	} else {
		bindings = []key.Binding{
			m.keys.Send, m.keys.NewChat, m.keys.SwitchPane,
			m.keys.ToggleTheme, m.keys.Refresh, m.keys.Quit,
		}
	}
	return m.help.ShortHelpView(bindings)
}

// truncate shortens s to at most n runes, ellipsized.
func truncate(s string, n int) string {
	if n <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
