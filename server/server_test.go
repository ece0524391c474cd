package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/QVIZ/am"
	qviztest "github.com/teranos/QVIZ/internal/testing"
	"github.com/teranos/QVIZ/store"
)

const testSpecJSON = `{
	"title": "billing schema",
	"nodes": [
		{"id": "orders", "name": "orders", "type": "table", "is_center": true},
		{"id": "customers", "name": "customers", "type": "table"}
	],
	"links": [
		{"source": "orders", "target": "customers", "type": "references"}
	]
}`

func testConfig() *am.Config {
	return &am.Config{
		Server: am.ServerConfig{
			AllowedOrigins: []string{
				"http://localhost", "https://localhost",
				"http://127.0.0.1", "https://127.0.0.1",
			},
			MaxClients:    100,
			RatePerSecond: 30,
			RateBurst:     60,
		},
		Layout: am.LayoutConfig{Seed: 42},
		Panel:  am.PanelConfig{WidthFraction: 0.38, MinWidth: 320, ChromeHeight: 64, TransitionMs: 1},
		Export: am.ExportConfig{Scale: 2},
	}
}

func newTestServer(t *testing.T) *QVIZServer {
	t.Helper()
	conn := qviztest.CreateTestDB(t)

	s := NewServer(conn, "qviz_test.db", testConfig(), nil)
	t.Cleanup(func() { s.cancel() })
	return s
}

func postSpec(t *testing.T, s *QVIZServer) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/spec", strings.NewReader(testSpecJSON))
	rec := httptest.NewRecorder()
	s.HandleSpec(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.HandleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "running", body["state"])
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "status", status.Type)
	assert.Equal(t, "running", status.ServerState)
	assert.Equal(t, 0, status.Clients)
	assert.NotEmpty(t, status.Version)
}

func TestHandleSpecReplaceAndFetch(t *testing.T) {
	s := newTestServer(t)

	// No spec loaded yet
	req := httptest.NewRequest(http.MethodGet, "/api/spec", nil)
	rec := httptest.NewRecorder()
	s.HandleSpec(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postSpec(t, s)
	require.NotNil(t, s.CurrentSpec())

	req = httptest.NewRequest(http.MethodGet, "/api/spec", nil)
	rec = httptest.NewRecorder()
	s.HandleSpec(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched struct {
		Nodes []json.RawMessage `json:"nodes"`
		Links []json.RawMessage `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Len(t, fetched.Nodes, 2)
	assert.Len(t, fetched.Links, 1)
}

func TestHandleSpecMalformed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/spec", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.HandleSpec(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, s.CurrentSpec())
}

func TestHandleExportSVG(t *testing.T) {
	s := newTestServer(t)
	postSpec(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/export?format=svg", nil)
	rec := httptest.NewRecorder()
	s.HandleExport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestHandleExportPNG(t *testing.T) {
	s := newTestServer(t)
	postSpec(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/export?format=png", nil)
	rec := httptest.NewRecorder()
	s.HandleExport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}))
}

func TestHandleExportNoSpec(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/export?format=svg", nil)
	rec := httptest.NewRecorder()
	s.HandleExport(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleExportBadFormat(t *testing.T) {
	s := newTestServer(t)
	postSpec(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/export?format=bmp", nil)
	rec := httptest.NewRecorder()
	s.HandleExport(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpecStoreEndpoints(t *testing.T) {
	s := newTestServer(t)
	postSpec(t, s)

	// Save current spec
	req := httptest.NewRequest(http.MethodPost, "/api/specs", nil)
	rec := httptest.NewRecorder()
	s.HandleSpecs(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var saved store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.Slug)
	assert.Equal(t, 2, saved.NodeCount)

	// List
	req = httptest.NewRequest(http.MethodGet, "/api/specs", nil)
	rec = httptest.NewRecorder()
	s.HandleSpecs(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []store.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, saved.Slug, records[0].Slug)

	// Fetch by slug
	req = httptest.NewRequest(http.MethodGet, "/api/specs/"+saved.Slug, nil)
	rec = httptest.NewRecorder()
	s.HandleSpecBySlug(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/api/specs/"+saved.Slug, nil)
	rec = httptest.NewRecorder()
	s.HandleSpecBySlug(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Second delete reports missing
	req = httptest.NewRequest(http.MethodDelete, "/api/specs/"+saved.Slug, nil)
	rec = httptest.NewRecorder()
	s.HandleSpecBySlug(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSpecsSaveWithoutSpec(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/specs", nil)
	rec := httptest.NewRecorder()
	s.HandleSpecs(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOriginAllowed(t *testing.T) {
	s := newTestServer(t)

	assert.True(t, s.originAllowed("http://localhost:8777"))
	assert.True(t, s.originAllowed("https://127.0.0.1:9000"))
	assert.False(t, s.originAllowed("http://evil.example.com"))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	handler := s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/spec", nil)
	req.Header.Set("Origin", "http://localhost:8777")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8777", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStopIdempotentWithoutStart(t *testing.T) {
	s := newTestServer(t)

	require.NoError(t, s.Stop())
	assert.Equal(t, ServerStateStopped, s.getState())
}

func TestStatusChangeDetection(t *testing.T) {
	s := newTestServer(t)

	status := s.buildStatus()
	assert.True(t, s.statusHasChangedLocked(status), "first status always broadcasts")

	s.lastStatus = &cachedStatus{
		clients:  status.Clients,
		state:    s.getState(),
		memoryMB: status.MemoryMB,
	}
	unchanged := status
	assert.False(t, s.statusHasChangedLocked(unchanged))

	unchanged.Clients++
	assert.True(t, s.statusHasChangedLocked(unchanged))
}

func TestExtractPathParts(t *testing.T) {
	parts := extractPathParts("/api/specs/abc123", "/api/specs/")
	require.Len(t, parts, 1)
	assert.Equal(t, "abc123", parts[0])
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "12345678", shortID("123456789abc"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestUptimeAdvances(t *testing.T) {
	s := newTestServer(t)
	s.startedAt = time.Now().Add(-90 * time.Second)
	status := s.buildStatus()
	assert.GreaterOrEqual(t, status.UptimeSeconds, int64(90))
}
