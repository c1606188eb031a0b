package stores

import (
	"context"
	"testing"
	"time"

	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/internal/data/db"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFilterStore(t *testing.T) *FilterStore {
	t.Helper()
	database, err := Open(t.TempDir(), db.DefaultOpenOptions(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewFilterStore(database)
}

func ptr(b bool) *bool { return &b }

func TestFilterStore_GetMissing(t *testing.T) {
	store := newTestFilterStore(t)

	_, err := store.GetFilters(context.Background(), "I1")

	assert.ErrorIs(t, err, threadlist.ErrNoFilters)
}

func TestFilterStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestFilterStore(t)

	want := thread.NewFilters(true, false, true)
	require.NoError(t, store.SaveFilters(ctx, "I1", want))

	got, err := store.GetFilters(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFilterStore_PartialSaveKeepsNil(t *testing.T) {
	ctx := context.Background()
	store := newTestFilterStore(t)

	require.NoError(t, store.SaveFilters(ctx, "I1", thread.Filters{DraftsOnly: ptr(true)}))

	got, err := store.GetFilters(ctx, "I1")
	require.NoError(t, err)
	assert.Nil(t, got.UnresolvedOnly)
	assert.Nil(t, got.OnlyRobotCommentsWithHumanReply)
	require.NotNil(t, got.DraftsOnly)
	assert.True(t, *got.DraftsOnly)
}

func TestFilterStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestFilterStore(t)

	require.NoError(t, store.SaveFilters(ctx, "I1", thread.NewFilters(true, true, true)))
	require.NoError(t, store.SaveFilters(ctx, "I1", thread.Filters{UnresolvedOnly: ptr(false)}))

	got, err := store.GetFilters(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, thread.Filters{UnresolvedOnly: ptr(false)}, got)
}

func TestFilterStore_UpdateMerges(t *testing.T) {
	ctx := context.Background()
	store := newTestFilterStore(t)

	require.NoError(t, store.SaveFilters(ctx, "I1", thread.NewFilters(true, false, false)))

	merged, err := store.UpdateFilters(ctx, "I1", thread.Filters{DraftsOnly: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, thread.NewFilters(true, true, false), merged)

	got, err := store.GetFilters(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, merged, got)
}

func TestFilterStore_UpdateCreates(t *testing.T) {
	ctx := context.Background()
	store := newTestFilterStore(t)

	merged, err := store.UpdateFilters(ctx, "I9", thread.Filters{DraftsOnly: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, thread.Filters{DraftsOnly: ptr(true)}, merged)
}

func TestFilterStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	store := newTestFilterStore(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	require.NoError(t, store.SaveFilters(ctx, "old", thread.NewFilters(false, false, false)))
	store.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, store.SaveFilters(ctx, "new", thread.NewFilters(true, false, false)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Change)
	assert.Equal(t, "old", list[1].Change)
	assert.True(t, base.Add(time.Minute).Equal(list[0].UpdatedAt))

	removed, err := store.DeleteFilters(ctx, "old")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.DeleteFilters(ctx, "old")
	require.NoError(t, err)
	assert.False(t, removed)

	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
