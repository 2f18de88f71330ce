package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"

	"github.com/gmunumel/market-mind/internal/session"
)

// markdownRenderer converts assistant Markdown to styled terminal output.
// The glamour style follows the store's theme rather than terminal
// detection, so toggling the theme restyles rendered history too. The
// renderer is cached and only recreated when width or theme changes.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	theme    session.Theme
}

func glamourStyle(theme session.Theme) string {
	if theme == session.ThemeDark {
		return styles.DarkStyle
	}
	return styles.LightStyle
}

// newMarkdownRenderer creates a renderer for the given width and theme.
// Returns nil renderer on failure (graceful degradation to plain text).
func newMarkdownRenderer(width int, theme session.Theme) *markdownRenderer {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}

	return &markdownRenderer{renderer: r, width: width, theme: theme}
}

// UpdateWidth recreates the renderer only if width actually changed.
// Returns true if the renderer was updated.
func (m *markdownRenderer) UpdateWidth(width int) bool {
	if m == nil || width <= 0 || m.width == width {
		return false
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(m.theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Keep existing renderer on error
		return false
	}

	m.renderer = r
	m.width = width
	return true
}

// Render converts Markdown to styled terminal output.
// Returns the original text if rendering fails.
func (m *markdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return strings.TrimSuffix(rendered, "\n")
}
