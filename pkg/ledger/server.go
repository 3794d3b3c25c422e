package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/iotchain-dashboard/pkg/ai"
	"github.com/iotchain-dashboard/pkg/analyzer"
	"github.com/iotchain-dashboard/pkg/backend"
	"github.com/iotchain-dashboard/pkg/db"
)

// Ledger is the record storage behind the API.
type Ledger interface {
	GetHistory(limit int) ([]db.HistoryRecord, error)
	GetBlocks(limit int) ([]db.BlockRecord, error)
	UpsertHistoryRecord(r db.HistoryRecord) error
	UpsertBlock(b db.BlockRecord) error
	GetStats() (map[string]int, error)
}

type Options struct {
	APIKey    string
	RateLimit float64
	RateBurst int
	Now       func() time.Time
}

// Server is a small stand-in for the ledger backend the dashboard reads from.
type Server struct {
	ledger Ledger
	opts   Options
}

func NewServer(l Ledger, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{ledger: l, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	if s.opts.RateLimit > 0 {
		api.Use(NewRateLimiter(s.opts.RateLimit, s.opts.RateBurst).Limit)
	}
	api.Use(RequireAPIKey(s.opts.APIKey))

	api.HandleFunc("/history/all", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleIngestHistory).Methods(http.MethodPost)
	api.HandleFunc("/blockchain/blocks", s.handleBlocks).Methods(http.MethodGet)
	api.HandleFunc("/blockchain/blocks", s.handleIngestBlocks).Methods(http.MethodPost)
	api.HandleFunc("/analysis/run", s.handleAnalysis).Methods(http.MethodPost)
	return r
}

func (s *Server) Run(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Bool("auth", s.opts.APIKey != "").Msg("⛓️ ledger API started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.GetStats()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "counts": stats})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.ledger.GetHistory(limitParam(r))
	if err != nil {
		log.Error().Err(err).Str("request_id", r.Header.Get(backend.RequestIDHeader)).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, db.HistoryResponse{Records: records})
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := s.ledger.GetBlocks(limitParam(r))
	if err != nil {
		log.Error().Err(err).Str("request_id", r.Header.Get(backend.RequestIDHeader)).Msg("blocks query failed")
		writeError(w, http.StatusInternalServerError, "blocks unavailable")
		return
	}
	writeJSON(w, http.StatusOK, db.BlocksResponse{Blocks: blocks})
}

func (s *Server) handleIngestHistory(w http.ResponseWriter, r *http.Request) {
	var req db.HistoryResponse
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	for i, rec := range req.Records {
		if rec.ID == "" || rec.Hash == "" || rec.DeviceID == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("record %d: id, hash and deviceId are required", i))
			return
		}
	}
	for _, rec := range req.Records {
		if rec.Timestamp.IsZero() {
			rec.Timestamp = s.opts.Now()
		}
		if err := s.ledger.UpsertHistoryRecord(rec); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	log.Info().Int("records", len(req.Records)).Msg("📥 history ingested")
	writeJSON(w, http.StatusCreated, map[string]int{"accepted": len(req.Records)})
}

func (s *Server) handleIngestBlocks(w http.ResponseWriter, r *http.Request) {
	var req db.BlocksResponse
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	for i, b := range req.Blocks {
		if b.BlockNumber <= 0 || b.BlockID == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("block %d: blockNumber and blockId are required", i))
			return
		}
	}
	for _, b := range req.Blocks {
		if b.Timestamp.IsZero() {
			b.Timestamp = s.opts.Now()
		}
		if err := s.ledger.UpsertBlock(b); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	log.Info().Int("blocks", len(req.Blocks)).Msg("📥 blocks ingested")
	writeJSON(w, http.StatusCreated, map[string]int{"accepted": len(req.Blocks)})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	p := analyzer.DefaultParams()
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := ai.NewMock(0).Analyze(r.Context(), p)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analyzer.ErrInvalidSelection) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
