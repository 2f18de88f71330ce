package tui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/gmunumel/market-mind/internal/session"
)

// Brand color shared by both palettes.
const brandGreen = "#10B981"

// MARKET MIND banner (half-block style).
var bannerArt = []string{
	"█▀▄▀█ ▄▀█ █▀█ █▄▀ █▀▀ ▀█▀   █▀▄▀█ █ █▄░█ █▀▄",
	"█░▀░█ █▀█ █▀▄ █░█ ██▄ ░█░   █░▀░█ █ █░▀█ █▄▀",
}

// Styles contains all lipgloss styles for the TUI. Two palettes exist,
// selected by the store's theme.
type Styles struct {
	Banner        lipgloss.Style
	Tagline       lipgloss.Style
	SidebarTitle  lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style // The active chat's row
	SidebarCursor lipgloss.Style // The highlighted row while navigating
	User          lipgloss.Style
	Assistant     lipgloss.Style
	Sources       lipgloss.Style // Citation block under assistant replies
	System        lipgloss.Style
	Error         lipgloss.Style
	Prompt        lipgloss.Style
	Separator     lipgloss.Style
	StatusBar     lipgloss.Style
}

// StylesFor returns the style set for a theme.
func StylesFor(theme session.Theme) Styles {
	if theme == session.ThemeDark {
		return darkStyles()
	}
	return lightStyles()
}

func darkStyles() Styles {
	return Styles{
		Banner:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandGreen)),
		Tagline:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		SidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandGreen)),
		SidebarItem:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		SidebarActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		SidebarCursor: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		User:          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Sources:       lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),
		System:        lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

func lightStyles() Styles {
	return Styles{
		Banner:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandGreen)),
		Tagline:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		SidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandGreen)),
		SidebarItem:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		SidebarActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("29")),
		SidebarCursor: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("127")),
		User:          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("29")),
		Assistant:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("127")),
		Sources:       lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("243")),
		System:        lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		Prompt:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("29")),
		Separator:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		StatusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// RenderBanner returns the styled banner.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range bannerArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	_, _ = b.WriteString(s.Tagline.Render("AI-driven financial insights"))
	_, _ = b.WriteString("\n")
	return b.String()
}

// welcomeTips mirrors the suggestion prompts shown before a chat starts.
var welcomeTips = []string{
	"Try asking:",
	"  • Market summary — major indices, sector moves, macro drivers",
	"  • Risk analysis — downside scenarios and volatility catalysts",
	"  • Sentiment check — news tone and social chatter for hot tickers",
	"",
	"Ctrl+N starts a chat, Tab switches panes, Ctrl+T flips the theme.",
}

// RenderWelcomeTips returns the styled getting-started tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tagline.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
