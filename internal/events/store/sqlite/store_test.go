package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curio/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func event(typ events.Type, itemID uint64, ts time.Time) events.Event {
	return events.Event{
		ID:        uuid.New(),
		Type:      typ,
		Timestamp: ts,
		ItemID:    itemID,
		Actor:     "actor",
	}
}

func TestAppendAndListByItem(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	minted := event(events.TypeMinted, 1, base)
	minted.Descriptor = "ipfs://one"
	listed := event(events.TypeListed, 1, base.Add(time.Second))
	listed.Amount = "100"
	other := event(events.TypeMinted, 2, base)

	require.NoError(t, store.Append(ctx, minted))
	require.NoError(t, store.Append(ctx, listed))
	require.NoError(t, store.Append(ctx, other))

	history, err := store.ListByItem(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, minted.ID, history[0].ID)
	assert.Equal(t, "ipfs://one", history[0].Descriptor)
	assert.Equal(t, listed.ID, history[1].ID)
	assert.Equal(t, "100", history[1].Amount)
	assert.True(t, history[0].Timestamp.Equal(base))
}

func TestListByItem_Empty(t *testing.T) {
	store := openTestStore(t)

	history, err := store.ListByItem(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAppend_DuplicateIDRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	e := event(events.TypeSold, 1, time.Now().UTC())
	require.NoError(t, store.Append(ctx, e))
	assert.Error(t, store.Append(ctx, e))
}

func TestOpen_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.db")

	store, err := Open(path)
	require.NoError(t, err)
	e := event(events.TypeMinted, 5, time.Now().UTC())
	require.NoError(t, store.Append(context.Background(), e))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.ListByItem(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, e.ID, history[0].ID)
}
