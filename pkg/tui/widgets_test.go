package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotchain-dashboard/pkg/db"
	"github.com/iotchain-dashboard/pkg/overview"
)

func TestStatCardTrendRendering(t *testing.T) {
	up := StatCard(overview.StatCard{Title: "Active Devices", Value: "12", Trend: "+3"})
	require.Contains(t, up, "▲ +3 from last week")

	down := StatCard(overview.StatCard{Title: "Anomalies Detected", Value: "3", Trend: "-2"})
	require.Contains(t, down, "▼ -2 from last week")

	none := StatCard(overview.StatCard{Title: "Accuracy", Value: "97.8%"})
	require.NotContains(t, none, "from last week")
}

func TestNavButton(t *testing.T) {
	require.Contains(t, NavButton("History", true), "▸ History")
	require.NotContains(t, NavButton("History", false), "▸")
}

func TestHistoryTable(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	out := HistoryTable(db.DemoHistory(now))
	require.Contains(t, out, "Asset ID")
	require.Contains(t, out, "asset_003")
	require.Contains(t, out, "e99a18c428cb38d5...")
	require.Equal(t, 3, strings.Count(out, db.StatusVerified))
}

func TestBlocksTable(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	out := BlocksTable(db.DemoBlocks(now))
	for _, want := range []string{"#1247", "#1243", "BLK_c81e728d9d4c", "7 TXNs", "Peer1.org2"} {
		require.Contains(t, out, want)
	}
}

func TestGrid(t *testing.T) {
	out := Grid([]string{"a", "b", "c"}, 2)
	require.Equal(t, 2, len(strings.Split(out, "\n")))
}
