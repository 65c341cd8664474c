package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalup/pkg/core/archetype"
	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/store"
)

type memoryRepo struct {
	mu      sync.Mutex
	records []store.Record
	saveErr error
}

func (m *memoryRepo) Save(_ context.Context, rec *store.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = uuid.New()
	rec.CreatedAt = time.Date(2025, 3, 1, 10, 0, len(m.records), 0, time.UTC)
	rec.Archetype = rec.Result.Sector.Archetype
	rec.HasValuation = rec.Result.HasValuation
	m.records = append(m.records, *rec)
	return nil
}

func (m *memoryRepo) Latest(ctx context.Context, session string) (*store.Record, error) {
	recs, err := m.History(ctx, session)
	if err != nil {
		return nil, err
	}
	return &recs[len(recs)-1], nil
}

func (m *memoryRepo) History(_ context.Context, session string) ([]store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Record
	for _, r := range m.records {
		if r.SessionID == session {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(store.ErrNotFound, "session %s", session)
	}
	return out, nil
}

const servicesBody = `{
  "company": {"name": "ACME", "siren": "443061841"},
  "years": [{
    "year": 2023, "revenue": 2000000, "operating_result": 250000,
    "depreciation_amortization": 50000, "net_result": 180000,
    "equity": 600000, "cash": 200000, "financial_debt": 100000
  }],
  "profile": {"sector": "services"}
}`

func newTestServer(t *testing.T, repo Repository) (*httptest.Server, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	h := NewHandler(evaluation.NewEngine(), repo, nil, metrics)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, metrics
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandleEvaluate(t *testing.T) {
	srv, metrics := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/valuation/evaluate", servicesBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var out EvaluateResponse
	decode(t, resp, &out)
	require.NotNil(t, out.Result)
	assert.True(t, out.Result.HasValuation)
	assert.Empty(t, out.ID)
	assert.Empty(t, out.SessionID)
	assert.True(t, strings.HasPrefix(out.ReportMarkdown, "# Évaluation de ACME\n"))
	assert.Contains(t, out.ReportMarkdown, "SIREN : 443061841")

	arch := string(out.Result.Sector.Archetype)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues(arch, "true")))
}

func TestHandleEvaluate_MatchesEngine(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var req EvaluateRequest
	require.NoError(t, json.Unmarshal([]byte(servicesBody), &req))
	want, err := evaluation.NewEngine().Evaluate(req.Input)
	require.NoError(t, err)

	var out EvaluateResponse
	decode(t, post(t, srv.URL+"/api/valuation/evaluate", servicesBody), &out)
	assert.Equal(t, want.CessionPrice, out.Result.CessionPrice)
	assert.Equal(t, want.EnterpriseValue, out.Result.EnterpriseValue)
	assert.Equal(t, want.Sector.Archetype, out.Result.Sector.Archetype)
}

func TestHandleEvaluate_Persists(t *testing.T) {
	repo := &memoryRepo{}
	srv, _ := newTestServer(t, repo)

	var out EvaluateResponse
	decode(t, post(t, srv.URL+"/api/valuation/evaluate", servicesBody), &out)
	require.NotEmpty(t, out.ID)
	_, err := uuid.Parse(out.SessionID)
	require.NoError(t, err, "a session id is generated when none is sent")

	require.Len(t, repo.records, 1)
	assert.Equal(t, out.ID, repo.records[0].ID.String())
	assert.Equal(t, out.SessionID, repo.records[0].SessionID)

	body := strings.Replace(servicesBody, `"company"`, `"session_id": "s-1", "user_id": "u-9", "company"`, 1)
	decode(t, post(t, srv.URL+"/api/valuation/evaluate", body), &out)
	assert.Equal(t, "s-1", out.SessionID)
	require.Len(t, repo.records, 2)
	assert.Equal(t, "u-9", repo.records[1].UserID)
}

func TestHandleEvaluate_SaveFailure(t *testing.T) {
	srv, metrics := newTestServer(t, &memoryRepo{saveErr: errors.New("connection refused")})

	resp := post(t, srv.URL+"/api/valuation/evaluate", servicesBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out errorResponse
	decode(t, resp, &out)
	assert.Equal(t, "failed to store evaluation", out.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestErrors.WithLabelValues("evaluate", "500")))
}

func TestHandleEvaluate_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name        string
		body        string
		wantError   string
		wantDetails bool
	}{
		{"invalid json", `{"years": [`, errInvalidJSON.Error(), false},
		{"missing years", `{"profile": {"sector": "btp"}}`, "request does not match schema", true},
		{"years not an array", `{"years": "2023"}`, "request does not match schema", true},
		{"year out of range", `{"years": [{"year": 1700}]}`, "request does not match schema", true},
		{"unknown adjustment kind", `{"years": [], "adjustments": [{"kind": "bonus", "impact": 1}]}`, "request does not match schema", true},
		{"founder dependence out of range", `{"years": [], "qualitative": {"founder_dependence": 7}}`, "request does not match schema", true},
		{"duplicate years", `{"years": [{"year": 2023, "revenue": 1}, {"year": 2023, "revenue": 2}]}`, "duplicate fiscal year", false},
		{"adjustment without rationale", `{"years": [{"year": 2023, "revenue": 100}], "adjustments": [{"kind": "rent", "impact": 1000}]}`, "without rationale", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/valuation/evaluate", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var out errorResponse
			decode(t, resp, &out)
			assert.Contains(t, out.Error, tt.wantError)
			if tt.wantDetails {
				assert.NotEmpty(t, out.Details)
			}
		})
	}
}

func TestHandleEvaluate_EmptyYears(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/valuation/evaluate", `{"years": []}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out EvaluateResponse
	decode(t, resp, &out)
	assert.False(t, out.Result.HasValuation)
	assert.Contains(t, out.ReportMarkdown, "Aucune méthode de valorisation")
}

func TestHandleEvaluate_Methods(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/valuation/evaluate", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))

	resp = get(t, srv.URL+"/api/valuation/evaluate")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestReadRoutes_Preflight(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(evaluation.NewEngine(), &memoryRepo{}, nil, NewMetrics()).Register(mux)

	for _, path := range []string{
		"/api/valuation/sessions/abc/latest",
		"/api/valuation/sessions/abc/history",
		"/health",
	} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandleClassify(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	in := archetype.DiagnosticInput{Sector: "saas", Revenue: 3000000, EBITDA: 600000, GrowthPct: 15, RecurringPct: 85}
	body, err := json.Marshal(in)
	require.NoError(t, err)

	resp := post(t, srv.URL+"/api/valuation/classify", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ClassifyResponse
	decode(t, resp, &out)
	want := archetype.DefaultClassifier().ClassifyWithRule(in)
	assert.Equal(t, want.Archetype, out.Archetype)
	assert.Equal(t, want.Rule, out.Rule)
	assert.Equal(t, archetype.DefaultCatalog().Get(want.Archetype).Name, out.Name)
	assert.NotEmpty(t, out.PrimaryMethod)

	resp = post(t, srv.URL+"/api/valuation/classify", "not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleSessions(t *testing.T) {
	repo := &memoryRepo{}
	srv, _ := newTestServer(t, repo)

	for i := 0; i < 2; i++ {
		body := strings.Replace(servicesBody, `"company"`, `"session_id": "abc", "company"`, 1)
		resp := post(t, srv.URL+"/api/valuation/evaluate", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := get(t, srv.URL+"/api/valuation/sessions/abc/latest")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var latest store.Record
	decode(t, resp, &latest)
	assert.Equal(t, repo.records[1].ID, latest.ID)
	assert.True(t, latest.HasValuation)
	require.NotNil(t, latest.Result)

	resp = get(t, srv.URL+"/api/valuation/sessions/abc/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history HistoryResponse
	decode(t, resp, &history)
	assert.Equal(t, "abc", history.SessionID)
	require.Len(t, history.Evaluations, 2)
	assert.Equal(t, repo.records[0].ID, history.Evaluations[0].ID)

	resp = get(t, srv.URL+"/api/valuation/sessions/unknown/latest")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = get(t, srv.URL+"/api/valuation/sessions/unknown/history")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleSessions_NoRepository(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := get(t, srv.URL+"/api/valuation/sessions/abc/latest")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := get(t, srv.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	decode(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, archetype.CatalogVersion, health["catalog_version"])
	assert.Equal(t, false, health["persistence_ready"])

	post(t, srv.URL+"/api/valuation/evaluate", servicesBody)

	resp = get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "evalup_evaluations_total")
	assert.Contains(t, string(raw), "evalup_evaluation_duration_seconds_count 1")
}
