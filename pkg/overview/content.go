// Package overview holds the static dashboard content shared by the terminal
// and browser front ends.
package overview

import (
	"strconv"
	"strings"
)

type Tone string

const (
	ToneEmerald Tone = "emerald"
	ToneBlue    Tone = "blue"
	TonePurple  Tone = "purple"
	ToneTeal    Tone = "teal"
)

type StatCard struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Trend string `json:"trend,omitempty"` // "+12.5%", "-2"; empty = not shown
}

// Positive reports whether the trend reads as an improvement.
// Only a leading '+' counts.
func (c StatCard) Positive() bool { return strings.HasPrefix(c.Trend, "+") }

// TrendLine is the caption under the value, or "" when there is no trend.
func (c StatCard) TrendLine() string {
	if c.Trend == "" {
		return ""
	}
	return c.Trend + " from last week"
}

type InfoBox struct {
	Title  string `json:"title"`
	Status string `json:"status"`
	Tone   Tone   `json:"tone"`
}

type QuickStat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Content is everything on the home page plus the shell chrome text.
type Content struct {
	StatCards    []StatCard  `json:"statCards"`
	InfoBoxes    []InfoBox   `json:"infoBoxes"`
	QuickStats   []QuickStat `json:"quickStats"`
	AnalysisInfo []QuickStat `json:"analysisInfo"`
	Marquee      []string    `json:"marquee"`
	Team         []string    `json:"team"`
}

const (
	AppName   = "IoT Chain"
	Tagline   = "Secure IoT Data Pipeline"
	Copyright = "© 2024 IoT Blockchain Security System"

	WarningTitle      = "Connection Warning"
	HistoryWarning    = "Unable to fetch data from backend. Displaying mock data for demonstration purposes."
	BlockchainWarning = "Unable to fetch blockchain data. Displaying mock data for demonstration purposes."
)

func Default() Content {
	return Content{
		StatCards: []StatCard{
			{Title: "Total Transactions", Value: "1,247", Trend: "+12.5%"},
			{Title: "Active Devices", Value: "12", Trend: "+3"},
			{Title: "Anomalies Detected", Value: "3", Trend: "-2"},
			{Title: "Security Score", Value: "98%", Trend: "+5%"},
		},
		InfoBoxes: []InfoBox{
			{Title: "MQTT Broker", Status: "Connected", Tone: ToneEmerald},
			{Title: "Blockchain Network", Status: "Running", Tone: ToneBlue},
			{Title: "AI Detection", Status: "Active", Tone: TonePurple},
			{Title: "Backend API", Status: "Operational", Tone: ToneTeal},
		},
		QuickStats: []QuickStat{
			{Label: "Uptime", Value: "99.9%"},
			{Label: "Avg Response", Value: "45ms"},
			{Label: "Data Processed", Value: "2.4GB"},
			{Label: "Success Rate", Value: "99.7%"},
		},
		AnalysisInfo: []QuickStat{
			{Label: "AI Model", Value: "Isolation Forest"},
			{Label: "Detection Method", Value: "Anomaly Detection"},
			{Label: "Status", Value: "Ready"},
		},
		Marquee: []string{"Secure IoT Pipeline", "Blockchain Verified", "AI-Powered Detection", "Real-time Monitoring"},
		Team:    []string{"Vineet", "Priyanshu", "Mohit", "Prateek"},
	}
}

// MarqueeText joins the marquee items into one scrolling line.
func (c Content) MarqueeText() string {
	return strings.Join(c.Marquee, " • ")
}

// Thousands formats n with comma separators, e.g. 51840 -> "51,840".
func Thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
