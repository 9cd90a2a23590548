package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codenexus/storefront/internal/domain"
	"github.com/codenexus/storefront/internal/repository"
	apperrors "github.com/codenexus/storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*CartSnapshotRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartSnapshotRepository(client, 24*time.Hour), mr
}

func sampleSnapshot() *repository.CartSnapshot {
	return &repository.CartSnapshot{
		VisitorID:  "visitor-001",
		ProductIDs: []string{"1", "2", "1"},
		Language:   domain.LanguageZH,
		UpdatedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestCartSnapshotRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	snap := sampleSnapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, mr.Set("storefront:cart:"+snap.VisitorID, string(data)))

	got, err := repo.Get(context.Background(), snap.VisitorID)
	require.NoError(t, err)
	assert.Equal(t, snap.ProductIDs, got.ProductIDs)
	assert.Equal(t, domain.LanguageZH, got.Language)
	assert.True(t, snap.UpdatedAt.Equal(got.UpdatedAt))
}

func TestCartSnapshotRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "nobody")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCartSnapshotRepository_Get_CorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("storefront:cart:visitor-001", "{not json"))

	_, err := repo.Get(context.Background(), "visitor-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart snapshot")
}

func TestCartSnapshotRepository_Get_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "visitor-001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestCartSnapshotRepository_Save_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), sampleSnapshot()))

	assert.True(t, mr.Exists("storefront:cart:visitor-001"))
	assert.Equal(t, 24*time.Hour, mr.TTL("storefront:cart:visitor-001"))

	mr.FastForward(25 * time.Hour)
	assert.False(t, mr.Exists("storefront:cart:visitor-001"))
}

func TestCartSnapshotRepository_Save_Overwrites(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()

	snap := sampleSnapshot()
	require.NoError(t, repo.Save(ctx, snap))

	snap.ProductIDs = []string{"5"}
	require.NoError(t, repo.Save(ctx, snap))

	got, err := repo.Get(ctx, snap.VisitorID)
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, got.ProductIDs)
}

func TestCartSnapshotRepository_Save_RequiresVisitor(t *testing.T) {
	repo, _ := setupTestRedis(t)

	err := repo.Save(context.Background(), &repository.CartSnapshot{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestCartSnapshotRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSnapshot()))
	require.NoError(t, repo.Delete(ctx, "visitor-001"))
	assert.False(t, mr.Exists("storefront:cart:visitor-001"))

	// Deleting a missing key is not an error.
	assert.NoError(t, repo.Delete(ctx, "visitor-001"))
}
