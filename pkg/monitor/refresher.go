package monitor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/state"
)

// Source hands out the refresh work for whatever panel is currently visible.
// A nil Task means there is nothing to refresh right now.
type Source interface {
	RefreshCurrent() state.Task
}

// Refresher re-fetches the active record panel on a cron schedule.
// A tick that fires while the previous refresh is still running is skipped.
type Refresher struct {
	source   Source
	schedule string
	cron     *cron.Cron

	ticks   atomic.Int64
	skipped atomic.Int64
}

func NewRefresher(source Source, schedule string) (*Refresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", schedule, err)
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
	return &Refresher{source: source, schedule: schedule, cron: c}, nil
}

// Run starts the schedule and blocks until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.schedule, func() { r.Tick(ctx) }); err != nil {
		return err
	}
	r.cron.Start()
	log.Info().Str("schedule", r.schedule).Msg("🔄 auto refresh started")

	<-ctx.Done()
	<-r.cron.Stop().Done()
	log.Info().Int64("ticks", r.ticks.Load()).Int64("idle", r.skipped.Load()).Msg("auto refresh stopped")
	return ctx.Err()
}

// Tick performs one refresh synchronously.
func (r *Refresher) Tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	task := r.source.RefreshCurrent()
	if task == nil {
		r.skipped.Add(1)
		return
	}
	r.ticks.Add(1)
	task(ctx)
}

func (r *Refresher) Stats() (ticks, idle int64) {
	return r.ticks.Load(), r.skipped.Load()
}

// cronLogger routes cron's internal messages to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	log.Debug().Fields(kv).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	log.Error().Err(err).Fields(kv).Msg("cron: " + msg)
}
