package store

import (
	"context"
	"testing"
	"time"

	"github.com/imagetext/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_EmptyUser(t *testing.T) {
	repo := NewStatsRepository(newTestDB(t))
	ctx := context.Background()

	total, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	latest, err := repo.LatestUpload(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	uploads, err := repo.UploadsSince(ctx, 1, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestStatsRepository_Aggregates(t *testing.T) {
	conn := newTestDB(t)
	owner := createUser(t, NewUserRepository(conn), "s@example.com")
	other := createUser(t, NewUserRepository(conn), "o@example.com")
	images := NewImageRepository(conn)
	repo := NewStatsRepository(conn)
	ctx := context.Background()

	var last types.Image
	for i := 0; i < 3; i++ {
		img, err := images.Create(ctx, types.Image{UserID: owner.ID, Blob: []byte{byte(i)}})
		require.NoError(t, err)
		last = img
	}
	_, err := images.Create(ctx, types.Image{UserID: other.ID, Blob: []byte{1}})
	require.NoError(t, err)

	total, err := repo.CountByUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	latest, err := repo.LatestUpload(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, last.UploadedAt.Equal(*latest))

	uploads, err := repo.UploadsSince(ctx, owner.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, uploads, 3)

	future, err := repo.UploadsSince(ctx, owner.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, future)
}
