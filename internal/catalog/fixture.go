package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/codenexus/storefront/internal/domain"
)

//go:embed fixtures/products.json
var fixtureProducts []byte

// FixtureSource serves the built-in demo catalog.
type FixtureSource struct{}

func (FixtureSource) Load(_ context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(fixtureProducts, &products); err != nil {
		return nil, fmt.Errorf("decode fixture catalog: %w", err)
	}
	return products, nil
}
