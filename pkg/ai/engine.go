package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/backend"
	"github.com/iotchain-dashboard/pkg/config"
	"github.com/iotchain-dashboard/pkg/db"
)

const (
	ProviderMock   = "mock"
	ProviderRemote = "remote"

	AnalysisPath = "/api/analysis/run"
)

// Engine produces anomaly analysis summaries, either locally after an
// artificial delay or by calling an external analysis service.
type Engine struct {
	client *http.Client

	provider   string
	apiKey     string
	apiBaseURL string

	delay time.Duration
	after func(time.Duration) <-chan time.Time // test hook; nil = real timer
}

func NewEngine(cfg *config.Config) *Engine {
	var e *Engine
	if cfg.UsesRemoteAnalysis() {
		e = NewRemote(cfg.AnalysisURL, cfg.APIKey, &http.Client{Timeout: cfg.HTTPTimeout})
	} else {
		e = NewMock(cfg.AnalysisDelay)
	}
	log.Info().Str("provider", e.provider).Dur("delay", e.delay).Msg("🤖 analysis engine initialized")
	return e
}

func NewMock(delay time.Duration) *Engine {
	return &Engine{provider: ProviderMock, delay: delay}
}

func NewRemote(baseURL, apiKey string, hc *http.Client) *Engine {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Engine{provider: ProviderRemote, apiBaseURL: baseURL, apiKey: apiKey, client: hc}
}

// WithTimer replaces the delay timer of the mock provider.
func (e *Engine) WithTimer(after func(time.Duration) <-chan time.Time) *Engine {
	e.after = after
	return e
}

func (e *Engine) Provider() string { return e.provider }

func (e *Engine) Analyze(ctx context.Context, p analyzer.Params) (*db.AnalysisResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch e.provider {
	case ProviderMock:
		return e.analyzeMock(ctx, p)
	case ProviderRemote:
		return e.analyzeRemote(ctx, p)
	default:
		return nil, fmt.Errorf("no analysis provider configured")
	}
}

func (e *Engine) analyzeMock(ctx context.Context, p analyzer.Params) (*db.AnalysisResult, error) {
	var fire <-chan time.Time
	if e.after != nil {
		fire = e.after(e.delay)
	} else {
		t := time.NewTimer(e.delay)
		defer t.Stop()
		fire = t.C
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-fire:
	}

	res := analyzer.Compute(p)
	return &res, nil
}

func (e *Engine) analyzeRemote(ctx context.Context, p analyzer.Params) (*db.AnalysisResult, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.apiBaseURL+AnalysisPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(backend.RequestIDHeader, uuid.NewString())
	if e.apiKey != "" {
		req.Header.Set(backend.APIKeyHeader, e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("run analysis: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("run analysis: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("run analysis: %w", &backend.StatusError{Path: AnalysisPath, Status: resp.StatusCode})
	}

	var res db.AnalysisResult
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, fmt.Errorf("run analysis: decode: %w", err)
	}
	return &res, nil
}
