package tui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Viewport height: total minus input, separators, error and help.
		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + errorLines + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		contentWidth := max(msg.Width-sidebarWidth, 20)
		m.viewport.SetWidth(contentWidth)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(contentWidth - 4) // Room for "> " prompt
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(m.messageWidth())

		// Rebuild viewport content with new dimensions
		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Loading {
			m.rebuildViewportContent()
		}
		return m, cmd

	case stateChangedMsg:
		m.refresh()
		if msg.fromSubscription {
			// Re-arm the listener for the next change.
			return m, m.waitForUpdate()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
