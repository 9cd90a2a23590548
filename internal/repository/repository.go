package repository

import (
	"context"
	"time"

	"github.com/codenexus/storefront/internal/domain"
)

// CartSnapshot is the persisted part of a visitor's storefront state.
// Only product ids are stored; products are resolved against the catalog on load.
type CartSnapshot struct {
	VisitorID  string          `json:"visitor_id"`
	ProductIDs []string        `json:"product_ids"`
	Language   domain.Language `json:"language"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartSnapshotRepository defines the interface for cart snapshot persistence.
type CartSnapshotRepository interface {
	// Get retrieves the snapshot for a visitor. Returns ErrNotFound if none exists.
	Get(ctx context.Context, visitorID string) (*CartSnapshot, error)

	// Save persists a snapshot, overwriting any previous one for the visitor.
	Save(ctx context.Context, snapshot *CartSnapshot) error

	// Delete removes the snapshot for a visitor.
	Delete(ctx context.Context, visitorID string) error
}
