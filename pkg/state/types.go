package state

import (
	"context"
	"errors"

	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/db"
)

// Page identifies the panel shown in the authenticated shell.
type Page string

const (
	PageHome       Page = "home"
	PageHistory    Page = "history"
	PageBlockchain Page = "blockchain"
	PageAI         Page = "ai"
)

// PageOrder drives sidebar order and numeric shortcuts.
var PageOrder = []Page{PageHome, PageHistory, PageBlockchain, PageAI}

func (p Page) Valid() bool {
	switch p {
	case PageHome, PageHistory, PageBlockchain, PageAI:
		return true
	}
	return false
}

func (p Page) Title() string {
	switch p {
	case PageHome:
		return "Dashboard"
	case PageHistory:
		return "History"
	case PageBlockchain:
		return "Blockchain"
	case PageAI:
		return "AI Analysis"
	}
	return string(p)
}

// AuthPage selects which form is shown before login.
type AuthPage string

const (
	AuthLogin  AuthPage = "login"
	AuthSignup AuthPage = "signup"
)

// DataSource tags where a panel's records came from.
type DataSource string

const (
	SourceNone     DataSource = ""
	SourceRemote   DataSource = "remote"
	SourceFallback DataSource = "fallback"
)

// MismatchAlert is the text of the blocking alert shown on a signup password mismatch.
const MismatchAlert = "Passwords do not match!"

var (
	ErrUnknownPage      = errors.New("unknown page")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Task is deferred work produced by a state transition, typically a network call.
// The caller decides where it runs (bubbletea Cmd, goroutine, or inline in tests).
type Task func(ctx context.Context)

type Fetcher interface {
	FetchHistory(ctx context.Context) ([]db.HistoryRecord, error)
	FetchBlocks(ctx context.Context) ([]db.BlockRecord, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, p analyzer.Params) (*db.AnalysisResult, error)
}

// PanelView is the rendered state of a record panel.
type PanelView[T any] struct {
	Records []T        `json:"records"`
	Loading bool       `json:"loading"`
	Error   string     `json:"error,omitempty"`
	Source  DataSource `json:"source"`
}

// Fallback reports whether the records are demo data substituted after a failure.
func (p PanelView[T]) Fallback() bool { return p.Source == SourceFallback }

type AnalysisView struct {
	Params  analyzer.Params    `json:"params"`
	Loading bool               `json:"loading"`
	Result  *db.AnalysisResult `json:"result"`
	Error   string             `json:"error,omitempty"`
}

// Snapshot is a copy of the whole dashboard state, safe to render from any goroutine.
type Snapshot struct {
	Version     uint64                      `json:"version"`
	LoggedIn    bool                        `json:"loggedIn"`
	AuthPage    AuthPage                    `json:"authPage"`
	Page        Page                        `json:"page"`
	SidebarOpen bool                        `json:"sidebarOpen"`
	History     PanelView[db.HistoryRecord] `json:"history"`
	Blocks      PanelView[db.BlockRecord]   `json:"blocks"`
	Analysis    AnalysisView                `json:"analysis"`
}
