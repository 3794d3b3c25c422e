package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/db"
	"github.com/iotchain-dashboard/pkg/overview"
	"github.com/iotchain-dashboard/pkg/state"
)

func appTagline() string { return overview.AppName + " · " + overview.Tagline }

func (m Model) View() string {
	if !m.snap.LoggedIn {
		return m.viewAuth()
	}
	body := m.viewPage()
	if m.snap.SidebarOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.viewSidebar(), "  ", body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), "", body, "", m.viewFooter())
}

func (m Model) viewAuth() string {
	var form string
	if m.snap.AuthPage == state.AuthSignup {
		form = m.signup.view(m.hint, "ctrl+t sign in instead")
	} else {
		form = m.login.view(m.hint, "ctrl+t create an account")
	}
	if m.alert != "" {
		form = lipgloss.JoinVertical(lipgloss.Center, renderAlert(m.alert, 0), form)
	}
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
	}
	return form
}

func (m Model) viewHeader() string {
	left := headerStyle.Render("🛡  " + overview.AppName + " › " + m.snap.Page.Title())
	right := mutedStyle.Render("1-4 pages · s sidebar · r refresh · L logout · q quit")
	return lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", right)
}

func (m Model) viewSidebar() string {
	lines := []string{titleStyle.Render(overview.AppName), mutedStyle.Render(overview.Tagline), ""}
	for i, p := range state.PageOrder {
		lines = append(lines, NavButton(fmt.Sprintf("%d %s", i+1, p.Title()), p == m.snap.Page))
	}
	lines = append(lines, "", mutedStyle.Render("L  Logout"))
	return sidebarStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewFooter() string {
	text := m.content.MarqueeText() + "   "
	width := m.width
	if width <= 0 {
		width = 80
	}
	line := scroll(text, m.marquee, width)
	credits := "Team: " + strings.Join(m.content.Team, ", ") + " · " + overview.Copyright
	return footerStyle.Render(line + "\n" + credits)
}

// scroll returns a width-wide window of text rotated left by offset runes.
func scroll(text string, offset, width int) string {
	r := []rune(text)
	if len(r) == 0 {
		return ""
	}
	out := make([]rune, 0, width)
	for i := 0; i < width; i++ {
		out = append(out, r[(offset+i)%len(r)])
	}
	return string(out)
}

func (m Model) viewPage() string {
	switch m.snap.Page {
	case state.PageHistory:
		return m.viewHistory()
	case state.PageBlockchain:
		return m.viewBlocks()
	case state.PageAI:
		return m.viewAnalysis()
	}
	return m.viewHome()
}

func (m Model) viewHome() string {
	var cards, boxes, quick []string
	for _, c := range m.content.StatCards {
		cards = append(cards, StatCard(c))
	}
	for _, b := range m.content.InfoBoxes {
		boxes = append(boxes, InfoBox(b))
	}
	for _, q := range m.content.QuickStats {
		quick = append(quick, QuickStat(q))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("System Overview"),
		Grid(cards, 4),
		titleStyle.Render("System Status"),
		Grid(boxes, 4),
		titleStyle.Render("Quick Stats"),
		strings.Join(quick, "   "),
	)
}

func (m Model) viewHistory() string {
	v := m.snap.History
	parts := []string{titleStyle.Render("Transaction History"), mutedStyle.Render("Verified IoT records anchored on the ledger")}
	if v.Fallback() {
		parts = append(parts, Banner(overview.HistoryWarning))
	} else if v.Error != "" {
		parts = append(parts, errorStyle.Render("Fetch failed: "+v.Error))
	}
	if v.Loading {
		parts = append(parts, m.spinner.View()+" Loading records...")
	} else if len(v.Records) == 0 {
		parts = append(parts, mutedStyle.Render("No records found."))
	} else {
		verified := 0
		for _, r := range v.Records {
			if r.Status == db.StatusVerified {
				verified++
			}
		}
		parts = append(parts, HistoryTable(v.Records), StatusBadge(fmt.Sprintf("%d of %d records verified", verified, len(v.Records))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewBlocks() string {
	v := m.snap.Blocks
	parts := []string{titleStyle.Render("Blockchain Explorer"), mutedStyle.Render("Latest blocks on the network")}
	if v.Fallback() {
		parts = append(parts, Banner(overview.BlockchainWarning))
	} else if v.Error != "" {
		parts = append(parts, errorStyle.Render("Fetch failed: "+v.Error))
	}
	if v.Loading {
		parts = append(parts, m.spinner.View()+" Loading blocks...")
	} else if len(v.Records) == 0 {
		parts = append(parts, mutedStyle.Render("No blocks found."))
	} else {
		parts = append(parts, BlocksTable(v.Records), mutedStyle.Render(fmt.Sprintf("%d blocks", len(v.Records))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewAnalysis() string {
	a := m.snap.Analysis
	var info []string
	for _, q := range m.content.AnalysisInfo {
		info = append(info, QuickStat(q))
	}
	parts := []string{
		titleStyle.Render("AI Anomaly Analysis"),
		strings.Join(info, "   "),
		"",
		boldStyle.Render("Time range: ") + choice("Week", a.Params.Range == analyzer.RangeWeek) + " " + choice("Month", a.Params.Range == analyzer.RangeMonth) + mutedStyle.Render("   (w / m)"),
		boldStyle.Render("Window:     ") + windowChoices(a.Params) + mutedStyle.Render("   (← / →)"),
		"",
	}
	if a.Loading {
		parts = append(parts, m.spinner.View()+" Analyzing "+a.Params.Label()+" of data...")
	} else {
		parts = append(parts, navActiveStyle.Render("⏎ Run Analysis"))
	}
	if a.Error != "" {
		parts = append(parts, errorStyle.Render("Analysis failed: "+a.Error))
	}
	if res := a.Result; res != nil {
		stats := []string{
			StatCard(overview.StatCard{Title: "Total Records", Value: overview.Thousands(res.TotalRecords)}),
			StatCard(overview.StatCard{Title: "Anomalies Detected", Value: overview.Thousands(res.AnomaliesDetected)}),
			StatCard(overview.StatCard{Title: "Accuracy", Value: res.Accuracy}),
			StatCard(overview.StatCard{Title: "Avg Processing", Value: res.AvgProcessingTime}),
		}
		parts = append(parts, "", Grid(stats, 4), boldStyle.Render("Top Anomalies"))
		for _, an := range res.TopAnomalies {
			parts = append(parts, AnomalyRow(an))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func choice(label string, active bool) string {
	if active {
		return navActiveStyle.Render(label)
	}
	return navStyle.Render(label)
}

func windowChoices(p analyzer.Params) string {
	opts, cur, unit := analyzer.WeekOptions, p.Weeks, "w"
	if p.Range == analyzer.RangeMonth {
		opts, cur, unit = analyzer.MonthOptions, p.Months, "m"
	}
	out := make([]string, 0, len(opts))
	for _, n := range opts {
		out = append(out, choice(fmt.Sprintf("%d%s", n, unit), n == cur))
	}
	return strings.Join(out, "")
}
