package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotchain-dashboard/pkg/ai"
	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/backend"
	"github.com/iotchain-dashboard/pkg/db"
)

var seededAt = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	store, err := db.NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.SeedDemo(seededAt)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(store, opts).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstLedger(t *testing.T) {
	srv := newLedger(t, Options{APIKey: "k"})
	c := backend.NewWithHTTPClient(srv.URL, "k", srv.Client())

	records, err := c.FetchHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "asset_001", records[0].ID)

	blocks, err := c.FetchBlocks(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	require.Equal(t, int64(1247), blocks[0].BlockNumber)
	require.Equal(t, int64(1243), blocks[4].BlockNumber)
}

func TestRejectsWrongKey(t *testing.T) {
	srv := newLedger(t, Options{APIKey: "k"})

	_, err := backend.NewWithHTTPClient(srv.URL, "nope", srv.Client()).FetchHistory(context.Background())
	var se *backend.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusUnauthorized, se.Status)

	// health stays open
	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	srv := newLedger(t, Options{RateLimit: 0.001, RateBurst: 2})
	c := backend.NewWithHTTPClient(srv.URL, "", srv.Client())

	for i := 0; i < 2; i++ {
		_, err := c.FetchBlocks(context.Background())
		require.NoError(t, err)
	}
	_, err := c.FetchBlocks(context.Background())
	var se *backend.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusTooManyRequests, se.Status)
}

func post(t *testing.T, srv *httptest.Server, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := srv.Client().Post(srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIngest(t *testing.T) {
	srv := newLedger(t, Options{})
	c := backend.NewWithHTTPClient(srv.URL, "", srv.Client())

	resp := post(t, srv, "/api/history", db.HistoryResponse{Records: []db.HistoryRecord{
		{ID: "asset_004", Hash: "c4ca4238a0b923820dcc509a6f75849b", DeviceID: "IoT_Device_04", Timestamp: seededAt.Add(time.Hour)},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	records, err := c.FetchHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, "asset_004", records[0].ID)
	require.Equal(t, db.StatusVerified, records[0].Status)

	resp = post(t, srv, "/api/blockchain/blocks", db.BlocksResponse{Blocks: []db.BlockRecord{
		{BlockNumber: 1248, BlockID: "BLK_c4ca4238a0b9", TransactionID: "TXN_006_c4ca", Transactions: 2, Validator: "Peer0.org2"},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	blocks, err := c.FetchBlocks(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1248), blocks[0].BlockNumber)
	require.False(t, blocks[0].Timestamp.IsZero())
}

func TestIngestValidation(t *testing.T) {
	srv := newLedger(t, Options{})

	resp := post(t, srv, "/api/history", db.HistoryResponse{Records: []db.HistoryRecord{{ID: "asset_x"}}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv, "/api/blockchain/blocks", db.BlocksResponse{Blocks: []db.BlockRecord{{BlockID: "BLK"}}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalysisEndpointServesRemoteEngine(t *testing.T) {
	srv := newLedger(t, Options{APIKey: "k"})
	engine := ai.NewRemote(srv.URL, "k", srv.Client())

	res, err := engine.Analyze(context.Background(), analyzer.Params{Range: analyzer.RangeWeek, Weeks: 4, Months: 3})
	require.NoError(t, err)
	require.Equal(t, 8064, res.TotalRecords)
	require.Equal(t, 12, res.AnomaliesDetected)

	resp := post(t, srv, ai.AnalysisPath, map[string]interface{}{"timeRange": "year"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
