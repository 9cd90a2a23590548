package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/codenexus/storefront/internal/domain"
)

// JSONGetter fetches url and decodes the JSON body into dst.
// *httpclient.CircuitBreakerClient satisfies it.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

// RemoteSource loads products from an upstream catalog API that answers
// GET {base}/products with {"data": [...]}.
type RemoteSource struct {
	client  JSONGetter
	baseURL string
}

// NewRemoteSource creates a source for the API rooted at baseURL.
func NewRemoteSource(client JSONGetter, baseURL string) *RemoteSource {
	return &RemoteSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *RemoteSource) Load(ctx context.Context) ([]domain.Product, error) {
	var body struct {
		Data []domain.Product `json:"data"`
	}
	if err := s.client.GetJSON(ctx, s.baseURL+"/products", &body); err != nil {
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}
	return body.Data, nil
}
