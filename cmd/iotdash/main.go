package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iotchain-dashboard/pkg/ai"
	"github.com/iotchain-dashboard/pkg/backend"
	"github.com/iotchain-dashboard/pkg/config"
	"github.com/iotchain-dashboard/pkg/dashboard"
	"github.com/iotchain-dashboard/pkg/logger"
	"github.com/iotchain-dashboard/pkg/monitor"
	"github.com/iotchain-dashboard/pkg/overview"
	"github.com/iotchain-dashboard/pkg/state"
	"github.com/iotchain-dashboard/pkg/tui"
)

const usage = `iotdash - IoT sensor-to-ledger dashboard

Usage:
  iotdash [command]

Commands:
  tui        full-screen terminal dashboard (default)
  web        browser dashboard on IOTDASH_DASHBOARD_PORT
  snapshot   fetch history and blocks once, print them, exit
  help       show this message

Configuration is read from the environment and an optional .env file.
`

func main() {
	mode := "tui"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}
	if mode == "help" || mode == "-h" || mode == "--help" {
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", os.Stderr)
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {
	case "tui":
		err = runTUI(ctx, cfg)
	case "web":
		logger.Init(cfg.LogLevel, os.Stderr)
		err = runWeb(ctx, cfg)
	case "snapshot":
		logger.Init(cfg.LogLevel, os.Stderr)
		err = runSnapshot(ctx, cfg, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", mode, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("mode", mode).Msg("exited with error")
		os.Exit(1)
	}
}

func newStore(cfg *config.Config) *state.Store {
	client := backend.New(cfg.APIBaseURL, cfg.APIKey, cfg.HTTPTimeout)
	engine := ai.NewEngine(cfg)
	return state.New(client, engine, state.Options{
		DemoFallback: cfg.DemoFallback,
		DiscardStale: cfg.DiscardStale,
	})
}

// withRefresher adds the auto-refresh schedule to g when one is configured.
func withRefresher(ctx context.Context, g *errgroup.Group, cfg *config.Config, store *state.Store) error {
	if cfg.RefreshSchedule == "" {
		return nil
	}
	r, err := monitor.NewRefresher(store, cfg.RefreshSchedule)
	if err != nil {
		return err
	}
	g.Go(func() error { return r.Run(ctx) })
	return nil
}

func runTUI(ctx context.Context, cfg *config.Config) error {
	f, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logger.Init(cfg.LogLevel, f)
	log.Info().Msg("🛡 IoT Chain dashboard starting (tui)...")

	store := newStore(cfg)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if err := withRefresher(gctx, g, cfg, store); err != nil {
		return err
	}

	p := tea.NewProgram(tui.New(gctx, store, overview.Default()), tea.WithAltScreen(), tea.WithContext(gctx))
	// Send blocks until the event loop receives; never call it from inside Update.
	unsubscribe := store.Subscribe(func(s state.Snapshot) { go p.Send(tui.SnapshotMsg(s)) })
	defer unsubscribe()

	_, runErr := p.Run()
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(runErr, tea.ErrProgramKilled) {
		return nil
	}
	log.Info().Msg("goodbye 👋")
	return runErr
}

func runWeb(ctx context.Context, cfg *config.Config) error {
	log.Info().Msg("🛡 IoT Chain dashboard starting (web)...")
	store := newStore(cfg)

	g, gctx := errgroup.WithContext(ctx)
	if err := withRefresher(gctx, g, cfg, store); err != nil {
		return err
	}
	dash := dashboard.New(store, overview.Default(), cfg.DashboardPort)
	g.Go(func() error { return dash.Run(gctx) })

	printSummary(cfg)
	err := g.Wait()
	log.Info().Msg("goodbye 👋")
	return err
}

// runSnapshot logs in, loads both record panels concurrently and prints them.
func runSnapshot(ctx context.Context, cfg *config.Config, out io.Writer) error {
	start := time.Now()
	defer logger.Since("snapshot", start)

	store := newStore(cfg)
	store.Login("snapshot@cli", "snapshot")

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range []state.Task{store.RefreshHistory(), store.RefreshBlocks()} {
		task := task
		g.Go(func() error {
			task(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	snap := store.Snapshot()
	fmt.Fprintln(out, color.New(color.Bold).Sprint("Transaction History"), sourceTag(snap.History.Source, snap.History.Error))
	fmt.Fprint(out, tui.HistoryTable(snap.History.Records))
	fmt.Fprintln(out)
	fmt.Fprintln(out, color.New(color.Bold).Sprint("Blockchain"), sourceTag(snap.Blocks.Source, snap.Blocks.Error))
	fmt.Fprint(out, tui.BlocksTable(snap.Blocks.Records))
	return nil
}

func sourceTag(src state.DataSource, errMsg string) string {
	switch src {
	case state.SourceRemote:
		return color.GreenString("[remote]")
	case state.SourceFallback:
		return color.YellowString("[fallback: %s]", errMsg)
	}
	if errMsg != "" {
		return color.RedString("[error: %s]", errMsg)
	}
	return ""
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n" + strings.Repeat("═", 60))
	fmt.Println("  🛡  IOT CHAIN DASHBOARD - RUNNING")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Printf("  Backend:   %s\n", cfg.APIBaseURL)
	keyStatus := "❌ none (X-API-Key omitted)"
	if cfg.APIKey != "" {
		keyStatus = "✅ configured"
	}
	fmt.Printf("  API key:   %s\n", keyStatus)
	fmt.Printf("  Dashboard: http://localhost:%d\n", cfg.DashboardPort)
	aiStatus := fmt.Sprintf("🧪 mock (%s delay)", cfg.AnalysisDelay)
	if cfg.UsesRemoteAnalysis() {
		aiStatus = "✅ remote " + cfg.AnalysisURL
	}
	fmt.Printf("  AI Engine: %s\n", aiStatus)
	refresh := "off"
	if cfg.RefreshSchedule != "" {
		refresh = cfg.RefreshSchedule
	}
	fmt.Printf("  Refresh:   %s\n", refresh)
	fmt.Printf("  Fallback:  %v   Stale guard: %v\n", cfg.DemoFallback, cfg.DiscardStale)
	fmt.Println(strings.Repeat("═", 60) + "\n")
}
