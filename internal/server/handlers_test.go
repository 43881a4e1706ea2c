package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlcomplete/internal/session"
	"github.com/leapstack-labs/sqlcomplete/internal/testutil"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestSession(t *testing.T) *session.Session {
	t.Helper()

	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "shop.yaml"))
	require.NoError(t, err)
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	sess, err := session.Open(context.Background(), session.Config{
		CatalogFile: path,
		UsagePath:   filepath.Join(dir, "usage.db"),
		Scope:       "duckdb:shop",
		Logger:      testutil.NewTestLogger(t),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func setupTestServer(t *testing.T) (*httptest.Server, *session.Session) {
	t.Helper()
	sess := setupTestSession(t)
	srv := httptest.NewServer(New(Config{Session: sess, Logger: testutil.NewTestLogger(t)}).Handler())
	t.Cleanup(srv.Close)
	return srv, sess
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// =============================================================================
// Complete Tests
// =============================================================================

func TestComplete(t *testing.T) {
	srv, _ := setupTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTexts  []string
		wantError  string
	}{
		{
			name:       "cursor defaults to end",
			body:       `{"text": "SELECT * FROM ord"}`,
			wantStatus: http.StatusOK,
			wantTexts:  []string{"orders", "order_items"},
		},
		{
			name:       "explicit cursor",
			body:       `{"text": "SELECT  FROM users", "cursor": 7}`,
			wantStatus: http.StatusOK,
			wantTexts:  []string{"email"},
		},
		{
			name:       "cursor past the end",
			body:       `{"text": "SELECT", "cursor": 10}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "cursor out of range",
		},
		{
			name:       "negative cursor",
			body:       `{"text": "SELECT", "cursor": -2}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "cursor out of range",
		},
		{
			name:       "malformed json",
			body:       `{"text": `,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"sql": "SELECT"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/api/complete", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			if tt.wantStatus != http.StatusOK {
				var body errorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Contains(t, body.Error, tt.wantError)
				return
			}

			var body CompleteResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			var texts []string
			for _, m := range body.Matches {
				texts = append(texts, m.Text)
			}
			for _, want := range tt.wantTexts {
				assert.Contains(t, texts, want)
			}
		})
	}
}

func TestComplete_StartPosition(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := post(t, srv, "/api/complete", `{"text": "SELECT * FROM ord"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body CompleteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Matches)
	metas := make(map[string]string)
	for _, m := range body.Matches {
		assert.Equal(t, -3, m.StartPosition, m.Text)
		metas[m.Text] = m.DisplayMeta
	}
	assert.Equal(t, "table", metas["orders"])
	assert.Equal(t, "function", metas["order_total()"])
}

func TestComplete_EmptyResultIsArray(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := post(t, srv, "/api/complete", `{"text": "SELECT * FROM zzzzqqq"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, "[]", string(raw["matches"]))
}

// =============================================================================
// Usage, Refresh and Health Tests
// =============================================================================

func TestRecord(t *testing.T) {
	srv, sess := setupTestServer(t)

	resp := post(t, srv, "/api/usage", `{"text": "SELECT status FROM orders"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, sess.Counts().Names["status"])

	resp = post(t, srv, "/api/usage", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := post(t, srv, "/api/refresh", ``)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	sess := setupTestSession(t)
	h := NewHandlers(sess, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, HealthResponse{Status: "ok", Session: sess.ID, Scope: "duckdb:shop"}, body)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/api/complete")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// =============================================================================
// Server lifecycle
// =============================================================================

func TestServe_ShutsDownOnCancel(t *testing.T) {
	sess := setupTestSession(t)
	s := New(Config{Session: sess, Logger: testutil.NewTestLogger(t)})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	sess := setupTestSession(t)
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = taken.Close() }()

	err = New(Config{Session: sess, Addr: taken.Addr().String()}).Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
