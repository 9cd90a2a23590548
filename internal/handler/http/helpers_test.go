package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/internal/auth"
	"github.com/codenexus/storefront/internal/catalog"
	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/repository/memory"
	"github.com/codenexus/storefront/internal/storefront"
	"github.com/codenexus/storefront/pkg/clock"
	"github.com/codenexus/storefront/pkg/health"
	"github.com/codenexus/storefront/pkg/httputil"
	"github.com/codenexus/storefront/pkg/middleware"
)

const adminEmail = "admin@codenexus.dev"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "1", Title: "SaaS Dashboard Kit", Price: decimal.NewFromInt(199), Category: "Web App", Rating: 4.8, Sales: 120, Tags: []string{"React", "Dashboard"}},
		{ID: "2", Title: "Crypto Wallet", Price: decimal.NewFromInt(499), Category: "Blockchain", Rating: 4.6, Sales: 40, Tags: []string{"Web3"}},
		{ID: "A", Title: "Budget Template", Price: decimal.NewFromInt(100), Category: "Web App", Tags: []string{"Template"}},
		{ID: "B", Title: "Icon Pack", Price: decimal.NewFromInt(50), Category: "Design", Tags: []string{"Icons"}},
	}
}

type testEnv struct {
	router   http.Handler
	clock    *clock.Fake
	registry *storefront.Registry
	auth     *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat, err := catalog.New(testProducts())
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	registry := storefront.NewRegistry(storefront.RegistryConfig{
		Catalog:         cat,
		Snapshots:       memory.NewCartSnapshotRepository(),
		Payments:        storefront.NewPaymentSwitch(true),
		Clock:           clk,
		Logger:          testLogger(),
		DefaultLanguage: domain.LanguageEN,
	})
	t.Cleanup(registry.Close)

	// Login runs on the wall clock with no delay so requests complete.
	authSvc := auth.NewService(auth.NewJWTManager("test-secret", time.Hour), nil,
		auth.Config{AdminEmails: []string{adminEmail}}, testLogger())

	router := NewRouter(RouterConfig{
		Catalog:         cat,
		Registry:        registry,
		Auth:            authSvc,
		Health:          health.NewHandler(),
		Logger:          testLogger(),
		DefaultLanguage: domain.LanguageEN,
		CORS:            middleware.DefaultCORSConfig(),
		CatalogMaxAge:   5 * time.Minute,
	})

	return &testEnv{router: router, clock: clk, registry: registry, auth: authSvc}
}

// do sends a request as visitor (skipped when empty) and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, visitor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if visitor != "" {
		req.Header.Set(middleware.VisitorHeader, visitor)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// withToken sends a request authenticated by a bearer token.
func (e *testEnv) withToken(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the data field of the envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage         `json:"data"`
		Error *httputil.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.Nil(t, env.Error, "unexpected error response")
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func newRawRequest(method, path, body, contentType string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return req
}

func serveRaw(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}
