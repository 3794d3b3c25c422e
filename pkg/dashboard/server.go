package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/overview"
	"github.com/iotchain-dashboard/pkg/state"
)

// Dashboard serves the shared dashboard state to a browser.
// Every tab drives the same session: there is one store per process.
type Dashboard struct {
	store   *state.Store
	content overview.Content
	port    int
	hub     *hub

	// ctx bounds tasks started by handlers; cancelled by Run on shutdown.
	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
}

func New(store *state.Store, content overview.Content, port int) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{store: store, content: content, port: port, ctx: ctx, cancel: cancel}
	d.hub = newHub(store)
	return d
}

func (d *Dashboard) Router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", d.handleState).Methods(http.MethodGet)
	api.HandleFunc("/overview", d.handleOverview).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", d.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup", d.handleSignup).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", d.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/page", d.handleAuthPage).Methods(http.MethodPost)

	shell := api.NewRoute().Subrouter()
	shell.Use(d.requireSession)
	shell.HandleFunc("/navigate", d.handleNavigate).Methods(http.MethodPost)
	shell.HandleFunc("/sidebar/toggle", d.handleToggleSidebar).Methods(http.MethodPost)
	shell.HandleFunc("/history/refresh", d.handleRefreshHistory).Methods(http.MethodPost)
	shell.HandleFunc("/blockchain/refresh", d.handleRefreshBlocks).Methods(http.MethodPost)
	shell.HandleFunc("/analysis/params", d.handleAnalysisParams).Methods(http.MethodPost)
	shell.HandleFunc("/analysis/run", d.handleRunAnalysis).Methods(http.MethodPost)

	r.HandleFunc("/ws", d.hub.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/", d.serveFrontend).Methods(http.MethodGet)
	return cors(r)
}

// Run serves until ctx is done, then drains in-flight tasks.
func (d *Dashboard) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", d.port)
	srv := &http.Server{Addr: addr, Handler: d.Router(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("🌐 dashboard started")

	select {
	case err := <-errCh:
		d.hub.shutdown()
		d.cancel()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	d.hub.shutdown()
	d.cancel()
	d.Wait()
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Wait blocks until every task started by a handler has finished.
func (d *Dashboard) Wait() { d.tasks.Wait() }

func (d *Dashboard) spawn(t state.Task) {
	if t == nil {
		return
	}
	d.tasks.Add(1)
	go func() {
		defer d.tasks.Done()
		t(d.ctx)
	}()
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Dashboard) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !d.store.Snapshot().LoggedIn {
			writeError(w, http.StatusUnauthorized, "not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// ---- Read-only ----

func (d *Dashboard) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.content)
}

// ---- Session ----

func (d *Dashboard) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !d.store.Login(req.Email, req.Password) {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ok, err := d.store.Signup(req.Name, req.Email, req.Password, req.ConfirmPassword)
	if errors.Is(err, state.ErrPasswordMismatch) {
		writeError(w, http.StatusBadRequest, state.MismatchAlert)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleLogout(w http.ResponseWriter, r *http.Request) {
	d.store.Logout()
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleAuthPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page state.AuthPage `json:"page"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	switch req.Page {
	case state.AuthLogin:
		d.store.ShowLogin()
	case state.AuthSignup:
		d.store.ShowSignup()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown auth page %q", req.Page))
		return
	}
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

// ---- Shell ----

func (d *Dashboard) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page state.Page `json:"page"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	task, err := d.store.Navigate(req.Page)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.spawn(task)
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleToggleSidebar(w http.ResponseWriter, r *http.Request) {
	d.store.ToggleSidebar()
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleRefreshHistory(w http.ResponseWriter, r *http.Request) {
	d.spawn(d.store.RefreshHistory())
	writeJSON(w, http.StatusAccepted, d.store.Snapshot())
}

func (d *Dashboard) handleRefreshBlocks(w http.ResponseWriter, r *http.Request) {
	d.spawn(d.store.RefreshBlocks())
	writeJSON(w, http.StatusAccepted, d.store.Snapshot())
}

func (d *Dashboard) handleAnalysisParams(w http.ResponseWriter, r *http.Request) {
	params := d.store.Snapshot().Analysis.Params
	if err := decode(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := d.store.SetParams(params); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analyzer.ErrInvalidSelection) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d.store.Snapshot())
}

func (d *Dashboard) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	if d.store.Snapshot().Page != state.PageAI {
		writeError(w, http.StatusConflict, "analysis runs only on the ai page")
		return
	}
	d.spawn(d.store.RunAnalysis())
	log.Debug().Msg("analysis run requested")
	writeJSON(w, http.StatusAccepted, d.store.Snapshot())
}
