package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/pkg/httpclient"
)

func remoteClient() *httpclient.CircuitBreakerClient {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("catalog-test"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestRemoteSource_Load(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"7","title":"Remote Kit","price":12.5,"category":"SaaS","rating":4,"sales":3,"tags":["Go"]}
		]}`))
	}))
	defer srv.Close()

	c, err := Load(context.Background(), NewRemoteSource(remoteClient(), srv.URL+"/v1/"))
	require.NoError(t, err)
	p, err := c.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Remote Kit", p.Title)
	assert.Equal(t, "12.5", p.Price.String())
}

func TestRemoteSource_Load_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"SERVICE_UNAVAILABLE","message":"maintenance"}}`))
	}))
	defer srv.Close()

	_, err := NewRemoteSource(remoteClient(), srv.URL).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch remote catalog")
}

func TestRemoteSource_Load_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewRemoteSource(remoteClient(), srv.URL).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned status 404")
}
