package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/listing-atlas/internal/listing"
	"github.com/sells-group/listing-atlas/internal/report"
	"github.com/sells-group/listing-atlas/internal/tier"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := get(t, newRouter(t.TempDir(), tier.Default()), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Classify(t *testing.T) {
	h := newRouter(t.TempDir(), tier.Default())

	tests := []struct {
		path   string
		status int
		label  string
	}{
		{"/api/classify/700", http.StatusOK, tier.LabelSmall},
		{"/api/classify/701", http.StatusOK, tier.LabelMedium},
		{"/api/classify/3001", http.StatusOK, tier.LabelLarge},
		{"/api/classify/abc", http.StatusBadRequest, ""},
		{"/api/classify/NaN", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			if tt.label == "" {
				return
			}
			var got tier.Tier
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.label, got.Label)
		})
	}
}

func TestRouter_Tiers(t *testing.T) {
	rec := get(t, newRouter(t.TempDir(), tier.Default()), "/api/tiers")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bounds []tier.Bound `json:"bounds"`
		Top    tier.Tier    `json:"top"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Bounds, 2)
	assert.Equal(t, tier.LabelLarge, body.Top.Label)
}

func TestRouter_Manifest(t *testing.T) {
	dir := t.TempDir()
	h := newRouter(dir, tier.Default())

	rec := get(t, h, "/api/manifest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	m := report.New(report.Inputs{Listings: "x.csv"}, []listing.Listing{{ID: 1, Borough: listing.Queens}}, tier.Default())
	require.NoError(t, m.Write(filepath.Join(dir, report.FileName)))

	rec = get(t, h, "/api/manifest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), m.RunID)
}

func TestRouter_StaticFilesAndCORS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "heatmap.html"), []byte("<html>heat</html>"), 0o644))
	h := newRouter(dir, tier.Default())

	req := httptest.NewRequest(http.MethodGet, "/heatmap.html", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "heat")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope.png").Code)
}
