package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecompiler/internal/build"
	"git.home.luguber.info/inful/pagecompiler/internal/cache"
	"git.home.luguber.info/inful/pagecompiler/internal/compile"
	"git.home.luguber.info/inful/pagecompiler/internal/config"
	ferrors "git.home.luguber.info/inful/pagecompiler/internal/foundation/errors"
	"git.home.luguber.info/inful/pagecompiler/internal/metrics"
	"git.home.luguber.info/inful/pagecompiler/internal/pageload"
	"git.home.luguber.info/inful/pagecompiler/internal/routes"
)

func newTestServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}

	cfg := config.Default()
	cfg.ContentDir = root
	opts, err := build.CompileOptions(cfg, nil)
	require.NoError(t, err)

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	c := compile.New(opts)
	b := &build.Builder{
		Config:   cfg,
		Compiler: c,
		Cache:    cache.New(c, cache.Options{Recorder: rec}),
		Registry: routes.NewRegistry(routes.FallbackNone, ""),
		Recorder: rec,
		Lenient:  true,
	}
	_, err = b.Index(context.Background())
	require.NoError(t, err)

	return New(Options{
		Loader:  &pageload.Loader{Registry: b.Registry, Modules: &pageload.CompilingLoader{Cache: b.Cache}},
		Metrics: metrics.HTTPHandler(reg),
	})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

var site = map[string]string{
	"index.md":      "# Home\n",
	"docs/guide.md": "# Guide\n\n## Install\n\nRun the installer.\n",
	"docs/bad.md":   "---\ntitle: [broken\n---\n",
}

func TestPageEndpoint(t *testing.T) {
	s := newTestServer(t, site)

	rr := get(t, s, "/pages/docs/guide")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	page := decode[PageResponse](t, rr)
	assert.Equal(t, "/docs/guide", page.Route)
	assert.Equal(t, "Guide", page.Metadata.Title)
	assert.Contains(t, page.Body, "Run the installer.")
	require.NotEmpty(t, page.TOC)

	rr = get(t, s, "/pages/docs/guide?metadata")
	require.Equal(t, http.StatusOK, rr.Code)
	meta := decode[MetadataResponse](t, rr)
	assert.Equal(t, page.Metadata, meta.Metadata)

	rr = get(t, s, "/pages/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Home", decode[PageResponse](t, rr).Metadata.Title)
}

func TestPageEndpointErrors(t *testing.T) {
	s := newTestServer(t, site)

	rr := get(t, s, "/pages/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, string(ferrors.CategoryNotFound), decode[ferrors.HTTPErrorResponse](t, rr).Category)

	rr = get(t, s, "/pages/docs/bad")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, string(ferrors.CategoryCompile), decode[ferrors.HTTPErrorResponse](t, rr).Category)

	// a failing page does not affect its siblings
	rr = get(t, s, "/pages/docs/guide")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = get(t, s, "/pages/docs/guide?locale=fr")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPageMapEndpoint(t *testing.T) {
	s := newTestServer(t, site)

	rr := get(t, s, "/pagemap")
	require.Equal(t, http.StatusOK, rr.Code)
	var full map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &full))
	assert.Contains(t, full, "pageMap")
	assert.Contains(t, full, "routeToFilepath")

	rr = get(t, s, "/pagemap?route=/docs")
	require.Equal(t, http.StatusOK, rr.Code)
	sub := decode[PageMapResponse](t, rr)
	assert.Equal(t, "/docs", sub.Route)
	assert.Len(t, sub.PageMap, 2)

	rr = get(t, s, "/pagemap?route=/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoutesEndpoint(t *testing.T) {
	s := newTestServer(t, site)

	rr := get(t, s, "/routes")
	require.Equal(t, http.StatusOK, rr.Code)
	table := decode[map[string]string](t, rr)
	assert.Len(t, table, 3)
	assert.Contains(t, table, "/docs/guide")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, site)

	rr := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	health := decode[HealthResponse](t, rr)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.Routes[""])

	get(t, s, "/pages/docs/guide")
	rr = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pagecompiler_cache_lookups_total")
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, site)
	s.opts.Addr = "127.0.0.1:0"
	require.NoError(t, s.Start(context.Background()))

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
