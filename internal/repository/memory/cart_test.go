package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/internal/repository"
	apperrors "github.com/codenexus/storefront/pkg/errors"
)

func TestCartSnapshotRepository_RoundTrip(t *testing.T) {
	repo := NewCartSnapshotRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "v1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	snap := &repository.CartSnapshot{VisitorID: "v1", ProductIDs: []string{"1", "1"}, Language: "zh"}
	require.NoError(t, repo.Save(ctx, snap))

	// Mutating the caller's slice must not leak into the stored copy.
	snap.ProductIDs[0] = "9"

	got, err := repo.Get(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "1"}, got.ProductIDs)

	require.NoError(t, repo.Delete(ctx, "v1"))
	_, err = repo.Get(ctx, "v1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartSnapshotRepository_SaveRequiresVisitor(t *testing.T) {
	err := NewCartSnapshotRepository().Save(context.Background(), &repository.CartSnapshot{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

var _ repository.CartSnapshotRepository = (*CartSnapshotRepository)(nil)
