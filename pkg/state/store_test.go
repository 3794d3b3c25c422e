package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotchain-dashboard/pkg/ai"
	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/db"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeFetcher answers each call with the next scripted response.
type fakeFetcher struct {
	mu           sync.Mutex
	historyCalls int
	blockCalls   int
	history      []db.HistoryRecord
	blocks       []db.BlockRecord
	err          error
}

func (f *fakeFetcher) FetchHistory(ctx context.Context) ([]db.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return f.history, f.err
}

func (f *fakeFetcher) FetchBlocks(ctx context.Context) ([]db.BlockRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockCalls++
	return f.blocks, f.err
}

// gatedFetcher blocks each call until its release channel is fed.
type gatedFetcher struct {
	release chan []db.HistoryRecord
}

func (g *gatedFetcher) FetchHistory(ctx context.Context) ([]db.HistoryRecord, error) {
	select {
	case r := <-g.release:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedFetcher) FetchBlocks(ctx context.Context) ([]db.BlockRecord, error) {
	return []db.BlockRecord{}, nil
}

func newStore(f Fetcher, an Analyzer, discardStale bool) *Store {
	if an == nil {
		an = ai.NewMock(0)
	}
	return New(f, an, Options{
		DemoFallback: true,
		DiscardStale: discardStale,
		Now:          func() time.Time { return fixedNow },
	})
}

func run(t Task) {
	if t != nil {
		t(context.Background())
	}
}

func TestInitialSnapshot(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)
	snap := s.Snapshot()

	require.False(t, snap.LoggedIn)
	require.Equal(t, AuthLogin, snap.AuthPage)
	require.Equal(t, PageHome, snap.Page)
	require.True(t, snap.SidebarOpen)
	require.Empty(t, snap.History.Records)
	require.Empty(t, snap.Blocks.Records)
	require.Equal(t, analyzer.DefaultParams(), snap.Analysis.Params)
	require.Nil(t, snap.Analysis.Result)
}

func TestLogin(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)

	require.False(t, s.Login("", "pw"))
	require.False(t, s.Login("a@b.c", ""))
	require.False(t, s.Snapshot().LoggedIn)

	require.True(t, s.Login("a@b.c", "x"))
	snap := s.Snapshot()
	require.True(t, snap.LoggedIn)
	require.Equal(t, PageHome, snap.Page)
}

func TestSignup(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)
	s.ShowSignup()
	require.Equal(t, AuthSignup, s.Snapshot().AuthPage)

	ok, err := s.Signup("Ann", "a@b.c", "p1", "p2")
	require.False(t, ok)
	require.True(t, errors.Is(err, ErrPasswordMismatch))
	require.False(t, s.Snapshot().LoggedIn)

	ok, err = s.Signup("", "a@b.c", "p1", "p1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Signup("Ann", "a@b.c", "p1", "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, s.Snapshot().LoggedIn)
}

func TestLogoutResetsShell(t *testing.T) {
	f := &fakeFetcher{history: []db.HistoryRecord{{ID: "asset_9"}}}
	s := newStore(f, nil, true)
	s.Login("a@b.c", "x")
	task, err := s.Navigate(PageHistory)
	require.NoError(t, err)
	run(task)
	s.ShowSignup()

	s.Logout()
	snap := s.Snapshot()
	require.False(t, snap.LoggedIn)
	require.Equal(t, AuthLogin, snap.AuthPage)
	require.Equal(t, PageHome, snap.Page)
	// cached panels survive a logout
	require.Len(t, snap.History.Records, 1)
}

func TestNavigateFetchesOncePerEntry(t *testing.T) {
	f := &fakeFetcher{
		history: []db.HistoryRecord{{ID: "asset_1"}},
		blocks:  []db.BlockRecord{{BlockNumber: 7}},
	}
	s := newStore(f, nil, true)

	task, err := s.Navigate(PageHome)
	require.NoError(t, err)
	require.Nil(t, task)

	task, _ = s.Navigate(PageHistory)
	require.True(t, s.Snapshot().History.Loading)
	run(task)
	require.Equal(t, 1, f.historyCalls)
	require.Equal(t, 0, f.blockCalls)

	snap := s.Snapshot()
	require.False(t, snap.History.Loading)
	require.Equal(t, SourceRemote, snap.History.Source)
	require.Equal(t, "asset_1", snap.History.Records[0].ID)

	task, _ = s.Navigate(PageHistory)
	run(task)
	require.Equal(t, 2, f.historyCalls)

	task, _ = s.Navigate(PageBlockchain)
	run(task)
	require.Equal(t, 1, f.blockCalls)
	require.Equal(t, int64(7), s.Snapshot().Blocks.Records[0].BlockNumber)

	task, _ = s.Navigate(PageAI)
	require.Nil(t, task)
}

func TestNavigateUnknownPage(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)
	task, err := s.Navigate(Page("settings"))
	require.Nil(t, task)
	require.True(t, errors.Is(err, ErrUnknownPage))
	require.Equal(t, PageHome, s.Snapshot().Page)
}

func TestFetchFailureFallsBackToDemo(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection refused")}
	s := newStore(f, nil, true)

	run(s.RefreshHistory())
	run(s.RefreshBlocks())

	snap := s.Snapshot()
	require.True(t, snap.History.Fallback())
	require.Len(t, snap.History.Records, 3)
	require.Equal(t, "asset_001", snap.History.Records[0].ID)
	require.Contains(t, snap.History.Error, "connection refused")

	require.True(t, snap.Blocks.Fallback())
	require.Len(t, snap.Blocks.Records, 5)
	require.Equal(t, int64(1247), snap.Blocks.Records[0].BlockNumber)
	require.True(t, snap.Blocks.Records[0].Timestamp.Equal(fixedNow))

	// recovery clears the warning
	f.err = nil
	f.history = []db.HistoryRecord{}
	run(s.RefreshHistory())
	snap = s.Snapshot()
	require.False(t, snap.History.Fallback())
	require.Empty(t, snap.History.Error)
	require.NotNil(t, snap.History.Records)
	require.Empty(t, snap.History.Records)
}

func TestFetchFailureWithoutFallback(t *testing.T) {
	s := New(&fakeFetcher{err: errors.New("boom")}, ai.NewMock(0), Options{DiscardStale: true})
	run(s.RefreshBlocks())

	snap := s.Snapshot()
	require.Empty(t, snap.Blocks.Records)
	require.Equal(t, SourceNone, snap.Blocks.Source)
	require.Equal(t, "boom", snap.Blocks.Error)
}

func TestStaleResponseDiscarded(t *testing.T) {
	g := &gatedFetcher{release: make(chan []db.HistoryRecord)}
	s := newStore(g, nil, true)

	first := s.RefreshHistory()
	second := s.RefreshHistory()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); second(context.Background()) }()
	g.release <- []db.HistoryRecord{{ID: "new"}}
	wg.Wait()

	wg.Add(1)
	go func() { defer wg.Done(); first(context.Background()) }()
	g.release <- []db.HistoryRecord{{ID: "old"}}
	wg.Wait()

	snap := s.Snapshot()
	require.Equal(t, "new", snap.History.Records[0].ID)
	require.False(t, snap.History.Loading)
}

func TestLastCompletionWinsWithoutGuard(t *testing.T) {
	g := &gatedFetcher{release: make(chan []db.HistoryRecord)}
	s := newStore(g, nil, false)

	first := s.RefreshHistory()
	second := s.RefreshHistory()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); second(context.Background()) }()
	g.release <- []db.HistoryRecord{{ID: "new"}}
	wg.Wait()

	wg.Add(1)
	go func() { defer wg.Done(); first(context.Background()) }()
	g.release <- []db.HistoryRecord{{ID: "old"}}
	wg.Wait()

	require.Equal(t, "old", s.Snapshot().History.Records[0].ID)
}

func TestRefreshCurrent(t *testing.T) {
	f := &fakeFetcher{history: []db.HistoryRecord{}, blocks: []db.BlockRecord{}}
	s := newStore(f, nil, true)

	require.Nil(t, s.RefreshCurrent())

	s.Login("a@b.c", "x")
	require.Nil(t, s.RefreshCurrent())

	task, _ := s.Navigate(PageBlockchain)
	run(task)
	run(s.RefreshCurrent())
	require.Equal(t, 2, f.blockCalls)
	require.Equal(t, 0, f.historyCalls)
}

func TestToggleSidebar(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)
	s.ToggleSidebar()
	require.False(t, s.Snapshot().SidebarOpen)
	s.ToggleSidebar()
	require.True(t, s.Snapshot().SidebarOpen)
}

func TestAnalysisParams(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)

	require.NoError(t, s.SetTimeRange(analyzer.RangeMonth))
	require.NoError(t, s.SelectMonths(6))
	require.True(t, errors.Is(s.SelectWeeks(5), analyzer.ErrInvalidSelection))
	require.True(t, errors.Is(s.SetTimeRange("year"), analyzer.ErrInvalidSelection))

	p := s.Snapshot().Analysis.Params
	require.Equal(t, analyzer.RangeMonth, p.Range)
	require.Equal(t, 6, p.Months)
	require.Equal(t, 2, p.Weeks)
}

func TestRunAnalysisAfterDelay(t *testing.T) {
	fire := make(chan time.Time)
	engine := ai.NewMock(1500 * time.Millisecond).WithTimer(func(time.Duration) <-chan time.Time { return fire })
	s := newStore(&fakeFetcher{}, engine, true)
	s.Login("a@b.c", "x")
	_, _ = s.Navigate(PageAI)
	require.NoError(t, s.SelectWeeks(4))

	task := s.RunAnalysis()
	snap := s.Snapshot()
	require.True(t, snap.Analysis.Loading)
	require.Nil(t, snap.Analysis.Result)

	done := make(chan struct{})
	go func() { task(context.Background()); close(done) }()
	fire <- fixedNow
	<-done

	snap = s.Snapshot()
	require.False(t, snap.Analysis.Loading)
	require.NotNil(t, snap.Analysis.Result)
	require.Equal(t, 8064, snap.Analysis.Result.TotalRecords)
	require.Equal(t, 12, snap.Analysis.Result.AnomaliesDetected)
	require.Equal(t, "97.8%", snap.Analysis.Result.Accuracy)
	require.Len(t, snap.Analysis.Result.TopAnomalies, 3)
}

func TestRunAnalysisMonths(t *testing.T) {
	s := newStore(&fakeFetcher{}, ai.NewMock(0), true)
	require.NoError(t, s.SetParams(analyzer.Params{Range: analyzer.RangeMonth, Weeks: 2, Months: 6}))
	run(s.RunAnalysis())

	res := s.Snapshot().Analysis.Result
	require.NotNil(t, res)
	require.Equal(t, 51840, res.TotalRecords)
	require.Equal(t, 72, res.AnomaliesDetected)
}

func TestLeavingAIDiscardsRun(t *testing.T) {
	fire := make(chan time.Time, 1)
	engine := ai.NewMock(time.Second).WithTimer(func(time.Duration) <-chan time.Time { return fire })
	s := newStore(&fakeFetcher{}, engine, true)
	_, _ = s.Navigate(PageAI)
	require.NoError(t, s.SelectMonths(9))

	task := s.RunAnalysis()
	done := make(chan struct{})
	go func() { task(context.Background()); close(done) }()

	// wait for the run to register before navigating away
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.analysis.running) == 1
	}, time.Second, time.Millisecond)

	_, _ = s.Navigate(PageHome)
	<-done

	snap := s.Snapshot()
	require.False(t, snap.Analysis.Loading)
	require.Nil(t, snap.Analysis.Result)
	require.Equal(t, analyzer.DefaultParams(), snap.Analysis.Params)
}

func TestNewRunCancelsOlder(t *testing.T) {
	fire := make(chan time.Time, 1)
	engine := ai.NewMock(time.Second).WithTimer(func(time.Duration) <-chan time.Time { return fire })
	s := newStore(&fakeFetcher{}, engine, true)

	first := s.RunAnalysis()
	firstDone := make(chan struct{})
	go func() { first(context.Background()); close(firstDone) }()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.analysis.running) == 1
	}, time.Second, time.Millisecond)

	second := s.RunAnalysis()
	<-firstDone
	require.True(t, s.Snapshot().Analysis.Loading)

	fire <- fixedNow
	run(second)
	snap := s.Snapshot()
	require.False(t, snap.Analysis.Loading)
	require.Equal(t, 4032, snap.Analysis.Result.TotalRecords)
}

func TestSubscribe(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)

	var mu sync.Mutex
	var seen []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})

	s.Login("a@b.c", "x")
	s.ToggleSidebar()
	unsubscribe()
	s.ToggleSidebar()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	require.True(t, seen[0].LoggedIn)
	require.False(t, seen[1].SidebarOpen)
}

func TestPublishedVersionMatchesContents(t *testing.T) {
	s := newStore(&fakeFetcher{}, nil, true)

	var mu sync.Mutex
	seen := map[uint64]bool{}
	var torn []uint64
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		// every toggle flips the sidebar, so odd versions are closed
		if (snap.Version%2 == 0) != snap.SidebarOpen {
			torn = append(torn, snap.Version)
		}
		seen[snap.Version] = true
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.ToggleSidebar()
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Empty(t, torn)
	require.Len(t, seen, 200)
	require.Equal(t, uint64(200), s.Snapshot().Version)
	require.True(t, s.Snapshot().SidebarOpen)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := &fakeFetcher{history: []db.HistoryRecord{{ID: "a"}}}
	s := newStore(f, nil, true)
	run(s.RefreshHistory())

	snap := s.Snapshot()
	snap.History.Records[0].ID = "mutated"
	require.Equal(t, "a", s.Snapshot().History.Records[0].ID)
}
