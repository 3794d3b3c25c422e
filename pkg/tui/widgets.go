package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iotchain-dashboard/pkg/db"
	"github.com/iotchain-dashboard/pkg/overview"
)

// ---- Presentational widgets ----
// All of these are pure: same input, same string.

func StatCard(c overview.StatCard) string {
	lines := []string{mutedStyle.Render(c.Title), boldStyle.Render(c.Value)}
	if line := c.TrendLine(); line != "" {
		style := downStyle
		arrow := "▼"
		if c.Positive() {
			style, arrow = upStyle, "▲"
		}
		lines = append(lines, style.Render(arrow+" "+line))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func InfoBox(b overview.InfoBox) string {
	color := toneColor(b.Tone)
	return cardStyle.BorderForeground(color).Render(
		boldStyle.Render(b.Title) + "\n" + lipgloss.NewStyle().Foreground(color).Render("● "+b.Status),
	)
}

func QuickStat(s overview.QuickStat) string {
	return fmt.Sprintf("%s %s", mutedStyle.Render(s.Label+":"), boldStyle.Render(s.Value))
}

func NavButton(label string, active bool) string {
	if active {
		return navActiveStyle.Render("▸ " + label)
	}
	return navStyle.Render("  " + label)
}

func SeverityDot(s db.Severity) string {
	return lipgloss.NewStyle().Foreground(severityColor(s)).Render("●")
}

func AnomalyRow(a db.Anomaly) string {
	return fmt.Sprintf("%s %-20s %4d  %s", SeverityDot(a.Severity), a.Type, a.Count, mutedStyle.Render(string(a.Severity)))
}

func StatusBadge(status string) string {
	return upStyle.Render("✔ " + status)
}

// Banner is the fallback warning shown above a panel serving demo data.
func Banner(message string) string {
	return bannerStyle.Render(lipgloss.NewStyle().Bold(true).Render("⚠ "+overview.WarningTitle) + "\n" + message)
}

// Grid lays out blocks in rows of perRow.
func Grid(blocks []string, perRow int) string {
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(blocks); i += perRow {
		end := min(i+perRow, len(blocks))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
