package memory

import (
	"context"
	"sync"

	"github.com/codenexus/storefront/internal/repository"
	apperrors "github.com/codenexus/storefront/pkg/errors"
)

// CartSnapshotRepository keeps snapshots in process memory. It is used when
// no Redis address is configured; snapshots do not survive a restart.
type CartSnapshotRepository struct {
	mu    sync.RWMutex
	snaps map[string]repository.CartSnapshot
}

// NewCartSnapshotRepository creates an empty in-memory repository.
func NewCartSnapshotRepository() *CartSnapshotRepository {
	return &CartSnapshotRepository{snaps: make(map[string]repository.CartSnapshot)}
}

func (r *CartSnapshotRepository) Get(_ context.Context, visitorID string) (*repository.CartSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.snaps[visitorID]
	if !ok {
		return nil, apperrors.NotFound("cart snapshot", visitorID)
	}
	snap.ProductIDs = append([]string(nil), snap.ProductIDs...)
	return &snap, nil
}

func (r *CartSnapshotRepository) Save(_ context.Context, snap *repository.CartSnapshot) error {
	if snap.VisitorID == "" {
		return apperrors.InvalidInput("visitor id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *snap
	stored.ProductIDs = append([]string(nil), snap.ProductIDs...)
	r.snaps[snap.VisitorID] = stored
	return nil
}

func (r *CartSnapshotRepository) Delete(_ context.Context, visitorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snaps, visitorID)
	return nil
}
