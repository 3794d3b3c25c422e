package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/iotchain-dashboard/pkg/ai"
	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/db"
	"github.com/iotchain-dashboard/pkg/overview"
	"github.com/iotchain-dashboard/pkg/state"
)

type offlineFetcher struct{}

func (offlineFetcher) FetchHistory(context.Context) ([]db.HistoryRecord, error) {
	return nil, errors.New("connection refused")
}

func (offlineFetcher) FetchBlocks(context.Context) ([]db.BlockRecord, error) {
	return nil, errors.New("connection refused")
}

func newTestDashboard(t *testing.T) (*Dashboard, *httptest.Server) {
	t.Helper()
	s := state.New(offlineFetcher{}, ai.NewMock(0), state.Options{DemoFallback: true, DiscardStale: true})
	d := New(s, overview.Default(), 0)
	srv := httptest.NewServer(d.Router())
	t.Cleanup(func() {
		srv.Close()
		d.hub.shutdown()
		d.cancel()
		d.Wait()
	})
	return d, srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func loginAs(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, body := call(t, srv, http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@iot.local", "password": "pw"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["loggedIn"])
}

func TestFrontendAndHealth(t *testing.T) {
	_, srv := newTestDashboard(t)

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	require.Contains(t, string(page), "Fetch failed: {v.error}")

	resp, body := call(t, srv, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestDashboard(t)
	resp, _ := call(t, srv, http.MethodOptions, "/api/navigate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLoginValidation(t *testing.T) {
	_, srv := newTestDashboard(t)

	resp, body := call(t, srv, http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@iot.local"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body["error"], "required")

	_, body = call(t, srv, http.MethodGet, "/api/state", nil)
	require.Equal(t, false, body["loggedIn"])
}

func TestSignupMismatch(t *testing.T) {
	_, srv := newTestDashboard(t)

	resp, body := call(t, srv, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ann", "email": "a@iot.local", "password": "one", "confirmPassword": "two",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, state.MismatchAlert, body["error"])

	resp, body = call(t, srv, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": "Ann", "email": "a@iot.local", "password": "one", "confirmPassword": "one",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["loggedIn"])
}

func TestAuthPageSwitch(t *testing.T) {
	_, srv := newTestDashboard(t)

	_, body := call(t, srv, http.MethodPost, "/api/auth/page", map[string]string{"page": "signup"})
	require.Equal(t, "signup", body["authPage"])

	resp, _ := call(t, srv, http.MethodPost, "/api/auth/page", map[string]string{"page": "reset"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShellRequiresSession(t *testing.T) {
	_, srv := newTestDashboard(t)
	for _, path := range []string{"/api/navigate", "/api/sidebar/toggle", "/api/history/refresh", "/api/analysis/run"} {
		resp, body := call(t, srv, http.MethodPost, path, map[string]string{"page": "history"})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		require.Equal(t, "not logged in", body["error"])
	}
}

func TestNavigateFallsBackToDemo(t *testing.T) {
	d, srv := newTestDashboard(t)
	loginAs(t, srv)

	resp, body := call(t, srv, http.MethodPost, "/api/navigate", map[string]string{"page": "blockchain"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "blockchain", body["page"])
	d.Wait()

	snap := d.store.Snapshot()
	require.True(t, snap.Blocks.Fallback())
	require.Len(t, snap.Blocks.Records, 5)

	resp, body = call(t, srv, http.MethodPost, "/api/navigate", map[string]string{"page": "settings"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body["error"], "unknown page")
}

func TestAnalysisEndpoints(t *testing.T) {
	d, srv := newTestDashboard(t)
	loginAs(t, srv)
	call(t, srv, http.MethodPost, "/api/navigate", map[string]string{"page": "ai"})

	resp, _ := call(t, srv, http.MethodPost, "/api/analysis/params", map[string]interface{}{"selectedWeeks": 5})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPost, "/api/analysis/params", map[string]interface{}{"timeRange": "month", "selectedMonths": 6})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, srv, http.MethodPost, "/api/analysis/run", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	d.Wait()

	a := d.store.Snapshot().Analysis
	require.Equal(t, analyzer.RangeMonth, a.Params.Range)
	require.False(t, a.Loading)
	require.NotNil(t, a.Result)
	require.Equal(t, 51840, a.Result.TotalRecords)
	require.Equal(t, 72, a.Result.AnomaliesDetected)
}

func TestLogoutEndpoint(t *testing.T) {
	_, srv := newTestDashboard(t)
	loginAs(t, srv)
	call(t, srv, http.MethodPost, "/api/navigate", map[string]string{"page": "history"})

	_, body := call(t, srv, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, false, body["loggedIn"])
	require.Equal(t, "home", body["page"])
}

func TestWebsocketPushesSnapshots(t *testing.T) {
	d, srv := newTestDashboard(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() state.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg struct {
			Type string         `json:"type"`
			Data state.Snapshot `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, MessageSnapshot, msg.Type)
		return msg.Data
	}

	first := read()
	require.False(t, first.LoggedIn)
	require.Eventually(t, func() bool { return d.hub.count() == 1 }, time.Second, 5*time.Millisecond)

	d.store.Login("ops@iot.local", "pw")
	next := read()
	require.True(t, next.LoggedIn)
	require.Greater(t, next.Version, first.Version)
}

func TestRunAnalysisOutsideAIPage(t *testing.T) {
	d, srv := newTestDashboard(t)
	loginAs(t, srv)
	call(t, srv, http.MethodPost, "/api/navigate", map[string]string{"page": "history"})

	resp, body := call(t, srv, http.MethodPost, "/api/analysis/run", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, body["error"], "ai page")
	d.Wait()

	a := d.store.Snapshot().Analysis
	require.False(t, a.Loading)
	require.Nil(t, a.Result)
}

func TestClientKeepsNewestSnapshot(t *testing.T) {
	c := &client{send: make(chan state.Snapshot, 1)}

	c.offer(state.Snapshot{Version: 2, Page: state.PageAI})
	c.offer(state.Snapshot{Version: 1, Page: state.PageHome})
	require.Equal(t, state.PageAI, (<-c.send).Page)

	c.offer(state.Snapshot{Version: 3, Page: state.PageHistory})
	c.offer(state.Snapshot{Version: 4, Page: state.PageBlockchain})
	require.Equal(t, uint64(4), (<-c.send).Version)
	require.Empty(t, c.send)
}

func TestWebsocketAfterShutdown(t *testing.T) {
	d, srv := newTestDashboard(t)
	d.hub.shutdown()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	require.Zero(t, d.hub.count())

	d.store.Login("ops@iot.local", "pw")
	require.Zero(t, d.hub.count())
}
