package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/db"
)

const (
	HistoryPath = "/api/history/all"
	BlocksPath  = "/api/blockchain/blocks"

	APIKeyHeader    = "X-API-Key"
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 10 << 20
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is returned when the ledger answers with a non-2xx status.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %d", e.Path, ErrUnexpectedStatus, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Client talks to the ledger API that serves history records and blocks.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, apiKey, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: hc}
}

// FetchHistory returns the full history list. A body without "records" yields an empty list.
func (c *Client) FetchHistory(ctx context.Context) ([]db.HistoryRecord, error) {
	var resp db.HistoryResponse
	if err := c.getJSON(ctx, HistoryPath, &resp); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if resp.Records == nil {
		resp.Records = []db.HistoryRecord{}
	}
	return resp.Records, nil
}

// FetchBlocks returns the latest blocks. A body without "blocks" yields an empty list.
func (c *Client) FetchBlocks(ctx context.Context) ([]db.BlockRecord, error) {
	var resp db.BlocksResponse
	if err := c.getJSON(ctx, BlocksPath, &resp); err != nil {
		return nil, fmt.Errorf("fetch blocks: %w", err)
	}
	if resp.Blocks == nil {
		resp.Blocks = []db.BlockRecord{}
	}
	return resp.Blocks, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	log.Debug().
		Str("path", path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("ledger request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
