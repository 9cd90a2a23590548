package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("AUTH_DELAY_MS", "0")
	t.Setenv("CATALOG_SOURCE", config.CatalogFixture)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_ENABLED", "false")
	t.Setenv("OTEL_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func TestNewApp_FixtureCatalog(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"1"`)
}

func TestNewApp_HealthReady(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_RemoteCatalog(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"r1","title":"Remote Kit","price":42,"category":"Tools"}]}`))
	}))
	t.Cleanup(upstream.Close)

	t.Setenv("AUTH_DELAY_MS", "0")
	t.Setenv("CATALOG_SOURCE", config.CatalogRemote)
	t.Setenv("CATALOG_API_URL", upstream.URL)

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/r1?lang=zh", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Remote Kit")
}

func TestNewApp_RemoteCatalogUnreachable(t *testing.T) {
	t.Setenv("AUTH_DELAY_MS", "0")
	t.Setenv("CATALOG_SOURCE", config.CatalogRemote)
	t.Setenv("CATALOG_API_URL", "http://127.0.0.1:1")

	cfg, err := config.Load()
	require.NoError(t, err)

	_, err = NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestSweepLoop_EvictsIdleStores(t *testing.T) {
	a := newTestApp(t)

	_, err := a.Registry().Get(context.Background(), "visitor-1")
	require.NoError(t, err)
	require.Equal(t, 1, a.Registry().Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweepLoop(ctx, a.Registry(), time.Nanosecond, a.logger)

	assert.Eventually(t, func() bool { return a.Registry().Len() == 0 },
		3*time.Second, 50*time.Millisecond)
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, time.Second, sweepInterval(time.Millisecond))
	assert.Equal(t, 15*time.Minute, sweepInterval(30*time.Minute))
}
