package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/iotchain-dashboard/pkg/db"
	"github.com/iotchain-dashboard/pkg/overview"
)

var (
	colorSlate   = lipgloss.Color("#0f172a")
	colorMuted   = lipgloss.Color("#94a3b8")
	colorText    = lipgloss.Color("#e2e8f0")
	colorAccent  = lipgloss.Color("#2dd4bf")
	colorGreen   = lipgloss.Color("#34d399")
	colorRed     = lipgloss.Color("#f87171")
	colorYellow  = lipgloss.Color("#facc15")
	colorBlue    = lipgloss.Color("#60a5fa")
	colorPurple  = lipgloss.Color("#c084fc")
	colorWarning = lipgloss.Color("#fbbf24")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	boldStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	errorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	upStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	downStyle   = lipgloss.NewStyle().Foreground(colorRed)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText).Background(colorSlate).Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(28)

	sidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(colorMuted).
			Padding(0, 1).
			Width(22)

	navActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSlate).Background(colorAccent).Padding(0, 1)
	navStyle       = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Foreground(colorWarning).
			Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorRed).
			Foreground(colorRed).
			Bold(true).
			Padding(0, 2)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 3).
			Width(50)

	footerStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func toneColor(t overview.Tone) lipgloss.Color {
	switch t {
	case overview.ToneEmerald:
		return colorGreen
	case overview.ToneBlue:
		return colorBlue
	case overview.TonePurple:
		return colorPurple
	case overview.ToneTeal:
		return colorAccent
	}
	return colorMuted
}

func severityColor(s db.Severity) lipgloss.Color {
	switch s {
	case db.SeverityHigh:
		return colorRed
	case db.SeverityMedium:
		return colorYellow
	case db.SeverityLow:
		return colorGreen
	}
	return colorMuted
}
