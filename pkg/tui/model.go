package tui

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/overview"
	"github.com/iotchain-dashboard/pkg/state"
)

// SnapshotMsg carries a state change that happened outside the event loop,
// e.g. a scheduled refresh.
type SnapshotMsg state.Snapshot

type taskDoneMsg struct{}

type marqueeTickMsg struct{}

const marqueeInterval = 250 * time.Millisecond

// Model is the full-screen terminal dashboard.
type Model struct {
	ctx     context.Context
	store   *state.Store
	content overview.Content

	snap   state.Snapshot
	width  int
	height int

	login  authForm
	signup authForm
	hint   string
	alert  string

	spinner spinner.Model
	marquee int
}

func New(ctx context.Context, store *state.Store, content overview.Content) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = titleStyle
	return Model{
		ctx:     ctx,
		store:   store,
		content: content,
		snap:    store.Snapshot(),
		login:   newLoginForm(),
		signup:  newSignupForm(),
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, marqueeTick())
}

func marqueeTick() tea.Cmd {
	return tea.Tick(marqueeInterval, func(time.Time) tea.Msg { return marqueeTickMsg{} })
}

// runTask turns a store Task into a command that reports back when done.
func (m Model) runTask(t state.Task) tea.Cmd {
	if t == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		t(ctx)
		return taskDoneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case SnapshotMsg, taskDoneMsg:
		// state already lives in the store; the snapshot below picks it up
	case marqueeTickMsg:
		m.marquee++
		cmd = marqueeTick()
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.alert != "" {
			m.alert = ""
			break
		}
		if m.snap.LoggedIn {
			cmd = m.handleShellKey(msg)
		} else {
			cmd = m.handleAuthKey(msg)
		}
	}
	m.snap = m.store.Snapshot()
	return m, cmd
}

// ---- Auth screens ----

func (m *Model) activeForm() *authForm {
	if m.snap.AuthPage == state.AuthSignup {
		return &m.signup
	}
	return &m.login
}

func (m *Model) handleAuthKey(msg tea.KeyMsg) tea.Cmd {
	form := m.activeForm()
	switch msg.String() {
	case "esc":
		return tea.Quit
	case "tab", "down":
		return form.move(1)
	case "shift+tab", "up":
		return form.move(-1)
	case "ctrl+t":
		m.hint = ""
		if m.snap.AuthPage == state.AuthSignup {
			m.store.ShowLogin()
		} else {
			m.store.ShowSignup()
		}
		return nil
	case "enter":
		m.submitAuth()
		return nil
	}
	return form.update(msg)
}

func (m *Model) submitAuth() {
	if m.snap.AuthPage == state.AuthSignup {
		f := &m.signup
		ok, err := m.store.Signup(f.value(0), f.value(1), f.value(2), f.value(3))
		switch {
		case errors.Is(err, state.ErrPasswordMismatch):
			m.alert = state.MismatchAlert
		case !ok:
			m.hint = "All fields are required."
		default:
			m.resetForms()
		}
		return
	}
	if !m.store.Login(m.login.value(0), m.login.value(1)) {
		m.hint = "Email and password are required."
		return
	}
	m.resetForms()
}

func (m *Model) resetForms() {
	m.login = newLoginForm()
	m.signup = newSignupForm()
	m.hint = ""
}

// ---- Authenticated shell ----

func (m *Model) handleShellKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q":
		return tea.Quit
	case "1", "2", "3", "4":
		return m.navigate(state.PageOrder[int(key[0]-'1')])
	case "tab":
		i := slices.Index(state.PageOrder, m.snap.Page)
		return m.navigate(state.PageOrder[(i+1)%len(state.PageOrder)])
	case "shift+tab":
		i := slices.Index(state.PageOrder, m.snap.Page)
		return m.navigate(state.PageOrder[(i+len(state.PageOrder)-1)%len(state.PageOrder)])
	case "s":
		m.store.ToggleSidebar()
		return nil
	case "L":
		m.store.Logout()
		return nil
	case "r":
		switch m.snap.Page {
		case state.PageHistory:
			return m.runTask(m.store.RefreshHistory())
		case state.PageBlockchain:
			return m.runTask(m.store.RefreshBlocks())
		}
		return nil
	}
	if m.snap.Page == state.PageAI {
		return m.handleAnalysisKey(key)
	}
	return nil
}

func (m *Model) navigate(p state.Page) tea.Cmd {
	task, err := m.store.Navigate(p)
	if err != nil {
		log.Warn().Err(err).Msg("navigate")
		return nil
	}
	return m.runTask(task)
}

func (m *Model) handleAnalysisKey(key string) tea.Cmd {
	params := m.snap.Analysis.Params
	var err error
	switch key {
	case "w":
		err = m.store.SetTimeRange(analyzer.RangeWeek)
	case "m":
		err = m.store.SetTimeRange(analyzer.RangeMonth)
	case "left", "h":
		err = m.stepWindow(params, -1)
	case "right", "l":
		err = m.stepWindow(params, 1)
	case "enter":
		return m.runTask(m.store.RunAnalysis())
	}
	if err != nil {
		log.Warn().Err(err).Msg("analysis selection")
	}
	return nil
}

// stepWindow moves the active range's selection to the neighbouring option.
func (m *Model) stepWindow(p analyzer.Params, delta int) error {
	opts, cur := analyzer.WeekOptions, p.Weeks
	if p.Range == analyzer.RangeMonth {
		opts, cur = analyzer.MonthOptions, p.Months
	}
	i := slices.Index(opts, cur) + delta
	if i < 0 || i >= len(opts) {
		return nil
	}
	if p.Range == analyzer.RangeMonth {
		return m.store.SelectMonths(opts[i])
	}
	return m.store.SelectWeeks(opts[i])
}
