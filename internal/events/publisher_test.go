package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curio/internal/events"
	eventmem "curio/internal/events/store/memory"
)

func newPublisher(t *testing.T, opts ...events.Option) (*events.Publisher, *eventmem.Store) {
	t.Helper()
	journal := eventmem.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return events.NewPublisher(journal, logger, opts...), journal
}

type recordingSink struct {
	produced []events.Event
	err      error
}

func (s *recordingSink) Produce(_ context.Context, e events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.produced = append(s.produced, e)
	return nil
}

func TestEmit_AssignsIDAndTimestamp(t *testing.T) {
	pub, journal := newPublisher(t)

	pub.Emit(context.Background(), events.Event{Type: events.TypeMinted, ItemID: 1, Actor: "a"})

	all := journal.All()
	require.Len(t, all, 1)
	assert.NotEqual(t, uuid.Nil, all[0].ID)
	assert.False(t, all[0].Timestamp.IsZero())
	assert.Equal(t, events.TypeMinted, all[0].Type)
}

func TestEmit_ForwardsToSink(t *testing.T) {
	sink := &recordingSink{}
	pub, journal := newPublisher(t, events.WithSink(sink))

	pub.Emit(context.Background(), events.Event{Type: events.TypeSold, ItemID: 7, Actor: "buyer"})

	require.Len(t, sink.produced, 1)
	assert.Equal(t, journal.All()[0].ID, sink.produced[0].ID)
}

func TestEmit_SinkFailureStillJournals(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	pub, journal := newPublisher(t, events.WithSink(sink))

	pub.Emit(context.Background(), events.Event{Type: events.TypeListed, ItemID: 3, Actor: "seller"})

	assert.Len(t, journal.All(), 1, "journal append must not depend on the sink")
	assert.Empty(t, sink.produced)
}

func TestListByItem_FiltersHistory(t *testing.T) {
	pub, _ := newPublisher(t)
	ctx := context.Background()

	pub.Emit(ctx, events.Event{Type: events.TypeMinted, ItemID: 1, Actor: "a"})
	pub.Emit(ctx, events.Event{Type: events.TypeMinted, ItemID: 2, Actor: "a"})
	pub.Emit(ctx, events.Event{Type: events.TypeListed, ItemID: 1, Actor: "a", Amount: "10"})

	history, err := pub.ListByItem(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, events.TypeMinted, history[0].Type)
	assert.Equal(t, events.TypeListed, history[1].Type)
}
