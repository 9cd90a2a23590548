package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codenexus/storefront/internal/repository"
	apperrors "github.com/codenexus/storefront/pkg/errors"
)

const keyPrefix = "storefront:cart:"

// CartSnapshotRepository implements repository.CartSnapshotRepository using Redis.
type CartSnapshotRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartSnapshotRepository creates a Redis-backed snapshot repository.
// Snapshots expire ttl after their last save.
func NewCartSnapshotRepository(client redis.UniversalClient, ttl time.Duration) *CartSnapshotRepository {
	return &CartSnapshotRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a visitor's snapshot from Redis.
func (r *CartSnapshotRepository) Get(ctx context.Context, visitorID string) (*repository.CartSnapshot, error) {
	data, err := r.client.Get(ctx, keyPrefix+visitorID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart snapshot", visitorID)
		}
		return nil, fmt.Errorf("redis get cart snapshot: %w", err)
	}

	var snap repository.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	return &snap, nil
}

// Save persists a snapshot with the configured TTL.
func (r *CartSnapshotRepository) Save(ctx context.Context, snap *repository.CartSnapshot) error {
	if snap.VisitorID == "" {
		return apperrors.InvalidInput("visitor id is required")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart snapshot: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+snap.VisitorID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart snapshot: %w", err)
	}
	return nil
}

// Delete removes a visitor's snapshot.
func (r *CartSnapshotRepository) Delete(ctx context.Context, visitorID string) error {
	if err := r.client.Del(ctx, keyPrefix+visitorID).Err(); err != nil {
		return fmt.Errorf("redis del cart snapshot: %w", err)
	}
	return nil
}
