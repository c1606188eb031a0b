package threadlist

import (
	"testing"
	"time"

	"github.com/colonyops/revthreads/internal/core/eventbus"
	"github.com/colonyops/revthreads/internal/core/eventbus/testbus"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(b bool) *bool { return &b }

func mkThread(rootID, path string, unresolved bool) thread.Thread {
	return thread.Thread{
		RootID: rootID,
		Path:   path,
		Comments: []thread.Comment{
			{ID: rootID, Path: path, Updated: t0, Unresolved: ptr(unresolved)},
		},
	}
}

func ids(threads []thread.Thread) []string {
	out := make([]string, len(threads))
	for i, t := range threads {
		out[i] = t.RootID
	}
	return out
}

func newList(t *testing.T, f thread.Filters) (*List, *testbus.Bus) {
	t.Helper()
	tb := testbus.New(t)
	l := New(Options{
		Change:   "I100",
		Filters:  f,
		LoggedIn: true,
		Bus:      tb.EventBus,
		Logger:   zerolog.Nop(),
	})
	return l, tb
}

func TestList_SyncSortsAndPublishes(t *testing.T) {
	l, tb := newList(t, thread.NewFilters(false, false, false))

	structural := l.Sync([]thread.Thread{
		mkThread("b", "b.go", false),
		mkThread("a", "a.go", true),
	})

	assert.True(t, structural)
	assert.Equal(t, []string{"a", "b"}, ids(l.Sorted()))

	require.True(t, tb.WaitFor(eventbus.EventThreadsSynced, time.Second))
	got := testbus.Payloads[eventbus.ThreadsSyncedPayload](tb, eventbus.EventThreadsSynced)
	require.Len(t, got, 1)
	assert.Equal(t, eventbus.ThreadsSyncedPayload{Change: "I100", Structural: true, Count: 2}, got[0])
}

func TestList_SyncEmptyFirstLoadIsStructural(t *testing.T) {
	l, _ := newList(t, thread.NewFilters(false, false, false))

	assert.True(t, l.Sync(nil))
	assert.Empty(t, l.Sorted())
}

func TestList_SyncValueOnlyKeepsOrder(t *testing.T) {
	l, _ := newList(t, thread.NewFilters(false, false, false))
	a := mkThread("a", "a.go", true)
	b := mkThread("b", "b.go", true)
	l.Sync([]thread.Thread{a, b})

	resolved := a.Clone()
	resolved.Comments[0].Unresolved = ptr(false)

	structural := l.Sync([]thread.Thread{resolved, b})

	assert.False(t, structural)
	assert.Equal(t, []string{"a", "b"}, ids(l.Sorted()))
	assert.False(t, thread.Annotate(l.Sorted()[0]).Unresolved)
}

func TestList_Add(t *testing.T) {
	l, _ := newList(t, thread.NewFilters(false, false, false))
	l.Sync([]thread.Thread{mkThread("b", "b.go", false)})

	l.Add(mkThread("a", "a.go", false))

	assert.Equal(t, []string{"a", "b"}, ids(l.Sorted()))
	assert.Len(t, l.Threads(), 2)
}

func TestList_Replace(t *testing.T) {
	l, _ := newList(t, thread.NewFilters(false, false, false))
	a := mkThread("a", "a.go", true)
	b := mkThread("b", "b.go", true)
	l.Sync([]thread.Thread{a, b})

	replied := a.Reply("done", false, t0.Add(time.Hour))
	require.NoError(t, l.Replace(replied))

	sorted := l.Sorted()
	assert.Equal(t, []string{"a", "b"}, ids(sorted))
	assert.Len(t, sorted[0].Comments, 2)

	err := l.Replace(mkThread("missing", "x.go", false))
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestList_RemoveThread(t *testing.T) {
	l, tb := newList(t, thread.NewFilters(false, false, false))
	l.Sync([]thread.Thread{
		mkThread("a", "a.go", false),
		mkThread("b", "b.go", false),
		mkThread("c", "c.go", false),
	})

	assert.True(t, l.RemoveThread("b"))
	assert.Equal(t, []string{"a", "c"}, ids(l.Sorted()))

	require.True(t, tb.WaitFor(eventbus.EventThreadDiscarded, time.Second))
	got := testbus.Payloads[eventbus.ThreadDiscardedPayload](tb, eventbus.EventThreadDiscarded)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].RootID)
	assert.Equal(t, "I100", got[0].Change)

	assert.False(t, l.RemoveThread("b"))
}

func TestList_CommentsChanged(t *testing.T) {
	l, tb := newList(t, thread.NewFilters(false, false, false))

	l.CommentsChanged("a", "a.go")

	require.True(t, tb.WaitFor(eventbus.EventThreadListModified, time.Second))
	got := testbus.Payloads[eventbus.ThreadListModifiedPayload](tb, eventbus.EventThreadListModified)
	require.Len(t, got, 1)
	assert.Equal(t, eventbus.ThreadListModifiedPayload{Change: "I100", RootID: "a", Path: "a.go"}, got[0])
}

func TestList_VisibleAppliesFilters(t *testing.T) {
	l, _ := newList(t, thread.NewFilters(true, false, false))
	l.Sync([]thread.Thread{
		mkThread("resolved", "a.go", false),
		mkThread("open", "b.go", true),
	})

	assert.Equal(t, []string{"open"}, ids(l.Visible()))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "open", entries[0].Thread.RootID)
	assert.True(t, entries[0].Visible)
	assert.False(t, entries[1].Visible)

	l.SetFilters(thread.NewFilters(false, false, false))
	assert.Len(t, l.Visible(), 2)
}

func TestList_IncompleteFiltersHideEverything(t *testing.T) {
	l, _ := newList(t, thread.Filters{})
	l.Sync([]thread.Thread{mkThread("a", "a.go", true)})

	assert.Empty(t, l.Visible())
}

func TestList_NilBusAndDefaults(t *testing.T) {
	l := New(Options{Logger: zerolog.Nop()})

	l.Sync([]thread.Thread{mkThread("a", "a.go", true)})
	assert.True(t, l.RemoveThread("a"))
	l.CommentsChanged("a", "a.go")

	assert.Equal(t, DefaultEmptyMessage, l.EmptyMessage())
	assert.False(t, l.ShowDraftToggle())
}

func TestList_SortedReturnsCopy(t *testing.T) {
	l, _ := newList(t, thread.NewFilters(false, false, false))
	l.Sync([]thread.Thread{mkThread("a", "a.go", true)})

	sorted := l.Sorted()
	sorted[0].Comments[0].Message = "mutated"

	assert.Empty(t, l.Sorted()[0].Comments[0].Message)
}
