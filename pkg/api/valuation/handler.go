// Package valuation exposes the evaluation engine over HTTP.
package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/report"
	"evalup/pkg/core/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Repository persists evaluations. *store.EvaluationRepo satisfies it.
type Repository interface {
	Save(ctx context.Context, rec *store.Record) error
	Latest(ctx context.Context, sessionID string) (*store.Record, error)
	History(ctx context.Context, sessionID string) ([]store.Record, error)
}

// EvaluateRequest is the body of POST /api/valuation/evaluate.
type EvaluateRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Company   report.Company `json:"company"`
	evaluation.Input
}

// EvaluateResponse is returned by POST /api/valuation/evaluate. ID and
// SessionID are set only when the evaluation was stored.
type EvaluateResponse struct {
	ID             string             `json:"id,omitempty"`
	SessionID      string             `json:"session_id,omitempty"`
	Result         *evaluation.Result `json:"result"`
	ReportMarkdown string             `json:"report_markdown"`
}

// ClassifyResponse is returned by POST /api/valuation/classify.
type ClassifyResponse struct {
	archetype.Match
	Name            string           `json:"name"`
	PrimaryMethod   archetype.Method `json:"primary_method"`
	SecondaryMethod archetype.Method `json:"secondary_method"`
	MetricBase      string           `json:"metric_base"`
}

// HistoryResponse is returned by GET /api/valuation/sessions/{session}/history.
type HistoryResponse struct {
	SessionID   string         `json:"session_id"`
	Evaluations []store.Record `json:"evaluations"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// Handler holds dependencies for the valuation endpoints.
type Handler struct {
	Engine  *evaluation.Engine
	Repo    Repository
	Logger  *zap.Logger
	Metrics *Metrics
}

// NewHandler creates a handler. repo and metrics may be nil.
func NewHandler(engine *evaluation.Engine, repo Repository, logger *zap.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Engine: engine, Repo: repo, Logger: logger, Metrics: metrics}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/valuation/evaluate", h.HandleEvaluate)
	mux.HandleFunc("/api/valuation/classify", h.HandleClassify)
	mux.HandleFunc("GET /api/valuation/sessions/{session}/latest", h.HandleLatest)
	mux.HandleFunc("GET /api/valuation/sessions/{session}/history", h.HandleHistory)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("OPTIONS /api/valuation/sessions/{session}/latest", preflight("GET, OPTIONS"))
	mux.HandleFunc("OPTIONS /api/valuation/sessions/{session}/history", preflight("GET, OPTIONS"))
	mux.HandleFunc("OPTIONS /health", preflight("GET, OPTIONS"))
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}
}

// preflight answers a CORS preflight request for a read-only route.
func preflight(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		setCORS(w, methods)
		w.WriteHeader(http.StatusOK)
	}
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func (h *Handler) fail(w http.ResponseWriter, endpoint string, status int, msg string, details ...string) {
	h.Metrics.requestError(endpoint, status)
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// HandleEvaluate validates the body, runs the engine, renders the report and
// stores the result when a repository is configured.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const endpoint = "evaluate"
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		h.fail(w, endpoint, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, endpoint, http.StatusBadRequest, "cannot read request body")
		return
	}
	violations, err := validateEvaluateRequest(body)
	if err != nil {
		h.fail(w, endpoint, http.StatusBadRequest, errInvalidJSON.Error())
		return
	}
	if len(violations) > 0 {
		h.fail(w, endpoint, http.StatusBadRequest, "request does not match schema", violations...)
		return
	}

	var req EvaluateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, endpoint, http.StatusBadRequest, err.Error())
		return
	}
	if req.Profile.NAFCode == "" {
		req.Profile.NAFCode = req.Company.NAFCode
	}

	start := time.Now()
	res, err := h.Engine.Evaluate(req.Input)
	if err != nil {
		h.Logger.Info("evaluation rejected", zap.Error(err))
		h.fail(w, endpoint, http.StatusBadRequest, err.Error())
		return
	}
	elapsed := time.Since(start)
	h.Metrics.observeEvaluation(string(res.Sector.Archetype), res.HasValuation, elapsed.Seconds())

	resp := EvaluateResponse{
		Result:         res,
		ReportMarkdown: report.Summary(res, req.Company),
	}

	if h.Repo != nil {
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}
		rec := &store.Record{SessionID: req.SessionID, UserID: req.UserID, Result: res}
		if err := h.Repo.Save(r.Context(), rec); err != nil {
			h.Logger.Error("failed to store evaluation", zap.String("session_id", req.SessionID), zap.Error(err))
			h.fail(w, endpoint, http.StatusInternalServerError, "failed to store evaluation")
			return
		}
		resp.ID = rec.ID.String()
		resp.SessionID = rec.SessionID
	}

	h.Logger.Info("evaluation served",
		zap.String("session_id", resp.SessionID),
		zap.String("archetype", string(res.Sector.Archetype)),
		zap.Bool("has_valuation", res.HasValuation),
		zap.Float64("price_mid", res.CessionPrice.Mid),
		zap.Duration("elapsed", elapsed),
	)
	writeJSON(w, http.StatusOK, resp)
}

// HandleClassify runs the archetype decision list alone.
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const endpoint = "classify"
	setCORS(w, "POST, OPTIONS")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		h.fail(w, endpoint, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var in archetype.DiagnosticInput
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in); err != nil {
		h.fail(w, endpoint, http.StatusBadRequest, "invalid request body")
		return
	}

	match := h.Engine.Classify(in)
	arch := h.Engine.Catalog().Get(match.Archetype)
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Match:           match,
		Name:            arch.Name,
		PrimaryMethod:   arch.PrimaryMethod,
		SecondaryMethod: arch.SecondaryMethod,
		MetricBase:      string(arch.MetricBase),
	})
}

// HandleLatest returns the most recent stored evaluation of a session.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	const endpoint = "latest"
	setCORS(w, "GET, OPTIONS")
	if h.Repo == nil {
		h.fail(w, endpoint, http.StatusNotImplemented, "persistence is not configured")
		return
	}
	session := r.PathValue("session")
	rec, err := h.Repo.Latest(r.Context(), session)
	if err != nil {
		h.storeError(w, endpoint, session, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleHistory returns every stored evaluation of a session, oldest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const endpoint = "history"
	setCORS(w, "GET, OPTIONS")
	if h.Repo == nil {
		h.fail(w, endpoint, http.StatusNotImplemented, "persistence is not configured")
		return
	}
	session := r.PathValue("session")
	recs, err := h.Repo.History(r.Context(), session)
	if err != nil {
		h.storeError(w, endpoint, session, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: session, Evaluations: recs})
}

func (h *Handler) storeError(w http.ResponseWriter, endpoint, session string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.fail(w, endpoint, http.StatusNotFound, "no evaluation for session "+session)
		return
	}
	h.Logger.Error("failed to load evaluations", zap.String("session_id", session), zap.Error(err))
	h.fail(w, endpoint, http.StatusInternalServerError, "failed to load evaluations")
}

// HandleHealth reports liveness and the reference data in use.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	setCORS(w, "GET, OPTIONS")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"catalog_version":   h.Engine.Catalog().Version(),
		"tables_version":    h.Engine.Tables().Version(),
		"reference_as_of":   h.Engine.Tables().AsOf(),
		"persistence_ready": h.Repo != nil,
	})
}
