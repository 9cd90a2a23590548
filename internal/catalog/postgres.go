package catalog

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the schema and seed migrations for the products table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Querier is the subset of a pgx pool the Postgres source reads with.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource loads products from the products table.
type PostgresSource struct {
	db Querier
}

// NewPostgresSource creates a source reading through db.
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

const listProductsQuery = `
	SELECT id, title, description, price::text, category, image, rating, sales, author, tags
	FROM products
	ORDER BY position, id`

// Load reads every product in display order.
func (s *PostgresSource) Load(ctx context.Context) (products []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, "ListProducts", listProductsQuery)
	defer func() { end(err) }()

	rows, err := s.db.Query(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&price,
			&p.Category,
			&p.Image,
			&p.Rating,
			&p.Sales,
			&p.Author,
			&p.Tags,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse price of product %s: %w", p.ID, err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}
