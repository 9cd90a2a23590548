// Package catalog holds the immutable product listing the storefront sells
// from, and the sources it can be loaded from.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/codenexus/storefront/internal/domain"
	apperrors "github.com/codenexus/storefront/pkg/errors"
	"github.com/codenexus/storefront/pkg/validator"
)

// Source loads the full product list once at startup.
type Source interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Category string
	// Query matches a case-insensitive substring of the title or a whole tag.
	Query string
}

// Catalog is safe for concurrent reads; it is never mutated after New.
type Catalog struct {
	products   []domain.Product
	index      map[string]int
	categories []string
}

// New validates products and indexes them by id. Order is preserved.
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		index:    make(map[string]int, len(products)),
	}

	seen := make(map[string]struct{})
	for _, p := range products {
		if err := validator.Validate(p); err != nil {
			return nil, fmt.Errorf("product %q: %w", p.ID, err)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duplicate product id %q", p.ID))
		}
		p.Tags = append([]string(nil), p.Tags...)
		c.index[p.ID] = len(c.products)
		c.products = append(c.products, p)

		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			c.categories = append(c.categories, p.Category)
		}
	}
	sort.Strings(c.categories)
	return c, nil
}

// Load reads every product from src and builds a Catalog.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	products, err := src.Load(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "load catalog")
	}
	return New(products)
}

// Get returns the product with id.
func (c *Catalog) Get(_ context.Context, id string) (domain.Product, error) {
	i, ok := c.index[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return c.products[i], nil
}

// List returns the products matching f in catalog order.
func (c *Catalog) List(f Filter) []domain.Product {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) && !p.HasTag(query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

func (c *Catalog) Len() int { return len(c.products) }
