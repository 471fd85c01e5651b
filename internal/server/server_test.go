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
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/rencanakan/ahsmatch/internal/breakdown"
	"github.com/rencanakan/ahsmatch/internal/catalog"
	"github.com/rencanakan/ahsmatch/internal/config"
	"github.com/rencanakan/ahsmatch/internal/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func serverRows() []catalog.Row {
	return []catalog.Row{
		{ID: 1, Code: "T.15.a.1", Name: "Galian tanah 1 m3"},
		{ID: 2, Code: "AHS.001", Name: "Pemasangan Bata Ringan 7.5 cm"},
		{ID: 3, Code: "AHS.002", Name: "Pemasangan Bata Ringan"},
	}
}

func testServerConfig() config.Server {
	return config.Server{
		Addr:           "127.0.0.1:0",
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   config.DefaultMaxBodyBytes,
	}
}

func newTestServer(t *testing.T, rows []catalog.Row, cfg config.Server) *Server {
	t.Helper()
	matcher := service.NewMatcher(catalog.NewMemoryRepository(rows), service.DefaultThresholds(), nil, zap.NewNop())
	bd := breakdown.NewService(t.TempDir(), zap.NewNop())
	return New(cfg, matcher, bd, zap.NewNop())
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	return data
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := getPath(t, s.Handler(), "/health")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "ahsmatch", data["service"])
	assert.NotEmpty(t, data["version"])
}

func TestMatchBestExactName(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-best", `{"description": "Galian tanah 1 m3"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store, no-cache, must-revalidate", w.Header().Get("Cache-Control"))

	data := decodeBody(t, w)
	assert.Equal(t, "found", data["status"])
	m, ok := data["match"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "T.15.a.1", m["code"])
	assert.Equal(t, 1.0, m["confidence"])
}

func TestMatchBestFuzzySimilar(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-best", `{"description": "galian tanah"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	assert.Equal(t, "similar", data["status"])
	m, ok := data["match"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Galian tanah 1 m3", m["name"])
	assert.InDelta(t, 0.9272, m["confidence"], 0.0001)
}

func TestMatchBestMultipleMatches(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-best", `{"description": "pemasangan hebel"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	assert.Equal(t, "found 2 similar", data["status"])
	matches, ok := data["match"].([]any)
	require.True(t, ok)
	require.Len(t, matches, 2)
	first, ok := matches[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AHS.002", first["code"])
}

func TestMatchBestNotFound(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-best", `{"description": "completely unrelated xyz"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	assert.Equal(t, "not found", data["status"])
	assert.Nil(t, data["match"])
}

func TestMatchBestAlternativesEnvelope(t *testing.T) {
	rows := []catalog.Row{{ID: 1, Code: "G.01", Name: "Galian tanah per m2"}}
	s := newTestServer(t, rows, testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-best", `{"description": "galian tanah", "unit": "m3"}`)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	_, hasStatus := data["status"]
	assert.False(t, hasStatus)
	assert.Equal(t, true, data["unit_mismatch"])
	assert.Contains(t, data["message"], "different units")
	alts, ok := data["alternatives"].([]any)
	require.True(t, ok)
	require.Len(t, alts, 1)
	alt, ok := alts[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "G.01", alt["code"])
}

func TestMatchBestValidationErrors(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	tests := []struct {
		name string
		body string
	}{
		{"missing description", `{}`},
		{"blank description", `{"description": "   "}`},
		{"description too long", `{"description": "` + strings.Repeat("a", 1025) + `"}`},
		{"unit with invalid characters", `{"description": "galian tanah", "unit": "m²"}`},
		{"unit too long", `{"description": "galian tanah", "unit": "` + strings.Repeat("m", 33) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, s.Handler(), "/api/v1/match-best", tt.body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Invalid input", decodeBody(t, w)["error"])
		})
	}
}

func TestMatchBestInvalidJSON(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-best", `{"description": `)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON", decodeBody(t, w)["error"])
}

func TestMatchBestUnsupportedContentType(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match-best", strings.NewReader(`{"description": "galian"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "Unsupported content type", decodeBody(t, w)["error"])
}

func TestMatchBestMissingContentTypeAllowed(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match-best", strings.NewReader(`{"description": "Galian tanah 1 m3"}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "found", decodeBody(t, w)["status"])
}

func TestMatchBestContentTypeWithCharset(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match-best", strings.NewReader(`{"description": "Galian tanah 1 m3"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestMatchBestPayloadTooLarge(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	body := `{"description": "` + strings.Repeat("a", 11*1024) + `"}`
	w := postJSON(t, s.Handler(), "/api/v1/match-best", body)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Payload too large", decodeBody(t, w)["error"])
}

func TestMatchBestEmptyBodyIsInvalidInput(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	// An empty body parses as an empty object, so it fails validation
	// rather than JSON decoding.
	w := postJSON(t, s.Handler(), "/api/v1/match-best", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input", decodeBody(t, w)["error"])
}

func TestMatchBulkMixedItems(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	body := `[{"description": "Galian tanah 1 m3"}, {"unit": "m2"}, "oops"]`
	w := postJSON(t, s.Handler(), "/api/v1/match-bulk", body)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	results, ok := data["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 3)

	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "found", first["status"])
	assert.Equal(t, "Galian tanah 1 m3", first["description"])

	second, ok := results[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", second["status"])
	assert.Contains(t, second["error"], "description")

	third, ok := results[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", third["status"])
	assert.Contains(t, third["error"], "object")
}

func TestMatchBulkRequiresArray(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-bulk", `{"description": "galian"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "array")
}

func TestMatchBulkInvalidJSON(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-bulk", `[{"description": `)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON", decodeBody(t, w)["error"])
}

func TestMatchBulkEmptyArray(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := postJSON(t, s.Handler(), "/api/v1/match-bulk", `[]`)

	require.Equal(t, http.StatusOK, w.Code)
	results, ok := decodeBody(t, w)["results"].([]any)
	require.True(t, ok)
	assert.Empty(t, results)
}

func TestMatchBulkEchoesTaskID(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	body := `[{"description": "Galian tanah 1 m3", "unit": "M3", "task_id": "t-9"}]`
	w := postJSON(t, s.Handler(), "/api/v1/match-bulk", body)

	require.Equal(t, http.StatusOK, w.Code)
	results := decodeBody(t, w)["results"].([]any)
	require.Len(t, results, 1)
	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "t-9", first["task_id"])
	assert.Equal(t, "M3", first["unit"])
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := getPath(t, s.Handler(), "/api/v1/search?term=pemasangan")

	require.Equal(t, http.StatusOK, w.Code)
	results, ok := decodeBody(t, w)["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 2)
	first, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AHS.001", first["code"])
}

func TestSearchEndpointLimit(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := getPath(t, s.Handler(), "/api/v1/search?term=pemasangan&limit=1")

	require.Equal(t, http.StatusOK, w.Code)
	results := decodeBody(t, w)["results"].([]any)
	assert.Len(t, results, 1)
}

func TestSearchEndpointBlankTerm(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := getPath(t, s.Handler(), "/api/v1/search")

	require.Equal(t, http.StatusOK, w.Code)
	results, ok := decodeBody(t, w)["results"].([]any)
	require.True(t, ok)
	assert.Empty(t, results)
}

func TestSearchEndpointInvalidLimit(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	for _, limit := range []string{"abc", "-1"} {
		w := getPath(t, s.Handler(), "/api/v1/search?term=pemasangan&limit="+limit)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid input", decodeBody(t, w)["error"])
	}
}

func writeBreakdownFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"labor.csv": "id,code,name,unit,unit_price\n1,L.01,Pekerja,OH,100000\n",
		"materials.csv": "id,code,name,unit,unit_price,brand\n1,M.01,Semen portland,kg,1500.25,\n",
		"ahs_main.csv": "id,code,name,unit_price\n1,A.1.1,Pekerjaan pondasi,165002.50\n",
		"ahs_components.csv": "ahs_code,component_type,component_id,quantity,coefficient\n" +
			"A.1.1,labor,L.01,1.5,\n" +
			"A.1.1,material,M.01,10,\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestBreakdownEndpoint(t *testing.T) {
	dir := t.TempDir()
	writeBreakdownFixtures(t, dir)

	matcher := service.NewMatcher(catalog.NewMemoryRepository(serverRows()), service.DefaultThresholds(), nil, zap.NewNop())
	bd := breakdown.NewService(dir, zap.NewNop())
	s := New(testServerConfig(), matcher, bd, zap.NewNop())

	w := getPath(t, s.Handler(), "/api/v1/ahs-breakdown/a-1.1")

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)
	assert.Equal(t, "A.1.1", data["code"])

	payload, ok := data["breakdown"].(map[string]any)
	require.True(t, ok)
	totals, ok := payload["totals"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 150000.0, totals["labor"], 0.001)
	assert.InDelta(t, 15002.5, totals["materials"], 0.001)
	assert.InDelta(t, 165002.5, totals["overall"], 0.001)

	components, ok := payload["components"].(map[string]any)
	require.True(t, ok)
	materials, ok := components["materials"].([]any)
	require.True(t, ok)
	require.Len(t, materials, 1)
	_, hasLabor := components["labor"]
	assert.False(t, hasLabor)
}

func TestBreakdownEndpointUnknownCode(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	w := getPath(t, s.Handler(), "/api/v1/ahs-breakdown/ZZ.99.999")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decodeBody(t, w), "error")
}

func TestServerStartAndShutdown(t *testing.T) {
	s := newTestServer(t, serverRows(), testServerConfig())

	require.NoError(t, s.Start())
	addr := s.Addr()
	require.NotEmpty(t, addr)

	assert.Error(t, s.Start())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	// Shutdown is idempotent once stopped.
	require.NoError(t, s.Shutdown(ctx))
}
