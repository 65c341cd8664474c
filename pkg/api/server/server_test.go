package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalup/pkg/core/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 0, RequestTimeoutSecs: 5},
		Valuation: config.ValuationConfig{ProjectionYears: 5, CashConversion: 0.55},
	}
}

func TestNew_Routes(t *testing.T) {
	s, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, ":0", s.Addr())

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/reference", "", http.StatusOK},
		{http.MethodPost, "/api/valuation/evaluate", `{"years": []}`, http.StatusOK},
		{http.MethodPost, "/api/valuation/classify", `{"sector": "btp", "revenue": 3000000}`, http.StatusOK},
		{http.MethodGet, "/api/valuation/sessions/x/latest", "", http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			s.Handler().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNew_ReferenceOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.hjson")
	require.NoError(t, os.WriteFile(path, []byte("{\n  # yearly refresh\n  as_of: 2026\n  version: \"2026.2\"\n}\n"), 0o644))

	cfg := testConfig()
	cfg.Reference.OverridesPath = path
	s, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "2026.2", health["tables_version"])
	assert.Equal(t, float64(2026), health["reference_as_of"])
}

func TestNew_BadOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Reference.OverridesPath = filepath.Join(t.TempDir(), "absent.yaml")
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, err := New(context.Background(), testConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
