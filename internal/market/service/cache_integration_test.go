//go:build integration

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curio/pkg/domain"
	"curio/pkg/testutil/containers"
)

// Exercises the listed-items cache against a real Redis server.
func TestListedItems_AgainstRedis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	f := newFixture(t, WithListedCache(rc.Client, time.Minute))
	ctx := context.Background()
	seller := newAccount()

	id, err := f.svc.Mint(ctx, seller, "d")
	require.NoError(t, err)
	require.NoError(t, f.svc.List(ctx, seller, id, amt(10)))

	ids, err := f.svc.ListedItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemID{id}, ids)

	// The id set is now cached in Redis.
	raw, err := rc.Client.Get(ctx, listedCacheKey).Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// Unlist drops the key; the next read rebuilds from the store.
	require.NoError(t, f.svc.Unlist(ctx, seller, id))
	_, err = rc.Client.Get(ctx, listedCacheKey).Bytes()
	assert.Error(t, err)

	ids, err = f.svc.ListedItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
