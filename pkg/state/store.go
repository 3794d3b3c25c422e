package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/db"
)

type Options struct {
	// DemoFallback replaces a failed panel's records with the demo dataset.
	// When false the panel is emptied instead.
	DemoFallback bool
	// DiscardStale drops completions that are not the latest request issued for a panel.
	// When false the last completion to arrive wins.
	DiscardStale bool
	Now          func() time.Time
}

// panel holds one record list and the bookkeeping of its fetches.
type panel[T any] struct {
	records []T
	loading bool
	err     string
	source  DataSource
	seq     uint64 // last request issued
}

type analysisPanel struct {
	params  analyzer.Params
	loading bool
	result  *db.AnalysisResult
	err     string
	seq     uint64
	epoch   uint64 // bumped when the panel is discarded
	running map[uint64]context.CancelFunc
}

// Store is the application shell: session, navigation, and the per-panel data.
// All mutations are serialized; network work runs in the Tasks it returns.
type Store struct {
	fetcher  Fetcher
	analyzer Analyzer
	opts     Options

	mu          sync.Mutex
	loggedIn    bool
	authPage    AuthPage
	page        Page
	sidebarOpen bool
	history     panel[db.HistoryRecord]
	blocks      panel[db.BlockRecord]
	analysis    analysisPanel
	version     uint64 // bumped on every change

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func New(fetcher Fetcher, an Analyzer, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		fetcher:     fetcher,
		analyzer:    an,
		opts:        opts,
		authPage:    AuthLogin,
		page:        PageHome,
		sidebarOpen: true,
		history:     panel[db.HistoryRecord]{records: []db.HistoryRecord{}},
		blocks:      panel[db.BlockRecord]{records: []db.BlockRecord{}},
		analysis:    newAnalysisPanel(),
		subs:        map[int]func(Snapshot){},
	}
}

func newAnalysisPanel() analysisPanel {
	return analysisPanel{params: analyzer.DefaultParams(), running: map[uint64]context.CancelFunc{}}
}

// ---- Session ----

// Login authenticates when both fields are non-empty. There is no credential check.
func (s *Store) Login(email, password string) bool {
	if email == "" || password == "" {
		return false
	}
	s.update(func() {
		s.loggedIn = true
	})
	log.Info().Str("email", email).Msg("🔓 logged in")
	return true
}

// Signup rejects mismatched passwords, then behaves like Login for a non-empty name, email and password.
func (s *Store) Signup(name, email, password, confirmPassword string) (bool, error) {
	if password != confirmPassword {
		return false, ErrPasswordMismatch
	}
	if name == "" || email == "" || password == "" {
		return false, nil
	}
	s.update(func() {
		s.loggedIn = true
	})
	log.Info().Str("email", email).Str("name", name).Msg("🆕 account created")
	return true, nil
}

// Logout clears the session and returns navigation to the home page.
func (s *Store) Logout() {
	s.update(func() {
		s.loggedIn = false
		s.authPage = AuthLogin
		s.page = PageHome
		s.resetAnalysisLocked()
	})
	log.Info().Msg("🔒 logged out")
}

func (s *Store) ShowSignup() { s.update(func() { s.authPage = AuthSignup }) }
func (s *Store) ShowLogin()  { s.update(func() { s.authPage = AuthLogin }) }

// ---- Navigation ----

// Navigate makes p the current page. Entering History or Blockchain returns
// the fetch Task for that panel; other pages return nil.
func (s *Store) Navigate(p Page) (Task, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, p)
	}
	var task Task
	s.update(func() {
		if s.page == PageAI && p != PageAI {
			s.resetAnalysisLocked()
		}
		s.page = p
		switch p {
		case PageHistory:
			task = s.beginHistoryLocked()
		case PageBlockchain:
			task = s.beginBlocksLocked()
		}
	})
	log.Debug().Str("page", string(p)).Msg("navigate")
	return task, nil
}

func (s *Store) ToggleSidebar() {
	s.update(func() { s.sidebarOpen = !s.sidebarOpen })
}

// ---- Record panels ----

func (s *Store) RefreshHistory() Task {
	var task Task
	s.update(func() { task = s.beginHistoryLocked() })
	return task
}

func (s *Store) RefreshBlocks() Task {
	var task Task
	s.update(func() { task = s.beginBlocksLocked() })
	return task
}

// RefreshCurrent refreshes the active record panel, if the session is
// authenticated and the current page has one. Used by the auto-refresh schedule.
func (s *Store) RefreshCurrent() Task {
	var task Task
	s.update(func() {
		if !s.loggedIn {
			return
		}
		switch s.page {
		case PageHistory:
			task = s.beginHistoryLocked()
		case PageBlockchain:
			task = s.beginBlocksLocked()
		}
	})
	return task
}

func (s *Store) beginHistoryLocked() Task {
	seq := begin(&s.history)
	return func(ctx context.Context) {
		records, err := s.fetcher.FetchHistory(ctx)
		s.update(func() {
			finish(&s.history, "history", seq, records, err, s.opts, func() []db.HistoryRecord {
				return db.DemoHistory(s.opts.Now())
			})
		})
	}
}

func (s *Store) beginBlocksLocked() Task {
	seq := begin(&s.blocks)
	return func(ctx context.Context) {
		blocks, err := s.fetcher.FetchBlocks(ctx)
		s.update(func() {
			finish(&s.blocks, "blocks", seq, blocks, err, s.opts, func() []db.BlockRecord {
				return db.DemoBlocks(s.opts.Now())
			})
		})
	}
}

func begin[T any](p *panel[T]) uint64 {
	p.loading = true
	p.err = ""
	p.seq++
	return p.seq
}

// finish applies a completed fetch. The list is always replaced wholesale.
func finish[T any](p *panel[T], name string, seq uint64, records []T, err error, opts Options, demo func() []T) {
	if opts.DiscardStale && seq != p.seq {
		log.Debug().Str("panel", name).Uint64("seq", seq).Uint64("latest", p.seq).Msg("discarding stale response")
		return
	}
	p.loading = false
	if err != nil {
		p.err = err.Error()
		if opts.DemoFallback {
			p.records = demo()
			p.source = SourceFallback
		} else {
			p.records = []T{}
			p.source = SourceNone
		}
		log.Warn().Err(err).Str("panel", name).Bool("fallback", opts.DemoFallback).Msg("⚠️ fetch failed")
		return
	}
	if records == nil {
		records = []T{}
	}
	p.records = records
	p.err = ""
	p.source = SourceRemote
}

// ---- AI analysis ----

func (s *Store) SetTimeRange(r analyzer.TimeRange) error {
	return s.setParams(func(p *analyzer.Params) { p.Range = r })
}

func (s *Store) SelectWeeks(n int) error {
	return s.setParams(func(p *analyzer.Params) { p.Weeks = n })
}

func (s *Store) SelectMonths(n int) error {
	return s.setParams(func(p *analyzer.Params) { p.Months = n })
}

// SetParams replaces the whole selection at once.
func (s *Store) SetParams(params analyzer.Params) error {
	return s.setParams(func(p *analyzer.Params) { *p = params })
}

func (s *Store) setParams(mutate func(*analyzer.Params)) error {
	s.mu.Lock()
	next := s.analysis.params
	mutate(&next)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.analysis.params = next
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
	return nil
}

// RunAnalysis starts an analysis of the current selection and returns the Task that performs it.
// The previous result stays visible until the new one arrives.
func (s *Store) RunAnalysis() Task {
	var (
		seq, epoch uint64
		params     analyzer.Params
	)
	s.update(func() {
		a := &s.analysis
		a.loading = true
		a.err = ""
		a.seq++
		seq, epoch, params = a.seq, a.epoch, a.params
		if s.opts.DiscardStale {
			for id, cancel := range a.running {
				cancel()
				delete(a.running, id)
			}
		}
	})

	return func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		if !s.attachRun(seq, epoch, cancel) {
			return
		}
		res, err := s.analyzer.Analyze(ctx, params)
		s.update(func() { s.finishRunLocked(seq, epoch, res, err) })
	}
}

func (s *Store) attachRun(seq, epoch uint64, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &s.analysis
	if a.epoch != epoch || (s.opts.DiscardStale && a.seq != seq) {
		return false
	}
	a.running[seq] = cancel
	return true
}

func (s *Store) finishRunLocked(seq, epoch uint64, res *db.AnalysisResult, err error) {
	a := &s.analysis
	delete(a.running, seq)
	if a.epoch != epoch {
		return
	}
	if s.opts.DiscardStale && a.seq != seq {
		return
	}
	a.loading = false
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// cancelled runs publish nothing
			return
		}
		a.err = err.Error()
		log.Warn().Err(err).Msg("⚠️ analysis failed")
		return
	}
	a.result = res
	log.Info().Int("records", res.TotalRecords).Int("anomalies", res.AnomaliesDetected).Msg("🧠 analysis complete")
}

func (s *Store) resetAnalysisLocked() {
	a := &s.analysis
	for _, cancel := range a.running {
		cancel()
	}
	epoch := a.epoch + 1
	*a = newAnalysisPanel()
	a.epoch = epoch
}

// ---- Snapshots & subscriptions ----

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:     s.version,
		LoggedIn:    s.loggedIn,
		AuthPage:    s.authPage,
		Page:        s.page,
		SidebarOpen: s.sidebarOpen,
		History:     view(&s.history),
		Blocks:      view(&s.blocks),
		Analysis: AnalysisView{
			Params:  s.analysis.params,
			Loading: s.analysis.loading,
			Error:   s.analysis.err,
		},
	}
	if s.analysis.result != nil {
		res := *s.analysis.result
		res.TopAnomalies = slices.Clone(res.TopAnomalies)
		snap.Analysis.Result = &res
	}
	return snap
}

func view[T any](p *panel[T]) PanelView[T] {
	return PanelView[T]{
		Records: slices.Clone(p.records),
		Loading: p.loading,
		Error:   p.err,
		Source:  p.source,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// update applies fn and publishes the resulting state. The snapshot is taken
// before the lock is released so its Version matches its contents.
func (s *Store) update(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// publish hands snap to every subscriber. Concurrent updates may publish out
// of order; subscribers compare Version to keep the newest.
func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	if len(s.subs) == 0 {
		s.subMu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
