// Package threadlist holds the presentation state for one change's comment
// threads: the authoritative collection, the previously sorted order, and
// the active filters.
package threadlist

import (
	"context"
	"errors"
	"slices"

	"github.com/colonyops/revthreads/internal/core/eventbus"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// DefaultEmptyMessage is shown when no thread is visible.
const DefaultEmptyMessage = "No threads."

// Sentinel errors for list operations.
var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrNoFilters      = errors.New("no saved filters")
)

// FilterStore persists filter toggles per change.
type FilterStore interface {
	// GetFilters returns the saved toggles for a change.
	// Returns ErrNoFilters if nothing was saved.
	GetFilters(ctx context.Context, change string) (thread.Filters, error)

	// SaveFilters stores the toggles for a change, replacing any previous value.
	SaveFilters(ctx context.Context, change string, f thread.Filters) error
}

// Entry is a thread in display order together with its derived status and
// visibility under the active filters.
type Entry struct {
	Thread  thread.Thread
	Status  thread.Status
	Visible bool
}

// Options configures a List.
type Options struct {
	Change       string
	Filters      thread.Filters
	LoggedIn     bool
	EmptyMessage string
	Locale       language.Tag
	Bus          *eventbus.EventBus // optional
	Logger       zerolog.Logger
}

// List owns a change's thread collection and its sorted order. Every mutation
// runs synchronously and leaves Sorted consistent with the collection. List is
// not safe for concurrent use.
type List struct {
	change   string
	threads  []thread.Thread
	sorted   []thread.Thread
	filters  thread.Filters
	loggedIn bool
	emptyMsg string

	sorter *thread.Sorter
	bus    *eventbus.EventBus
	log    zerolog.Logger
}

// New creates an empty list.
func New(opts Options) *List {
	emptyMsg := opts.EmptyMessage
	if emptyMsg == "" {
		emptyMsg = DefaultEmptyMessage
	}

	return &List{
		change:   opts.Change,
		filters:  opts.Filters,
		loggedIn: opts.LoggedIn,
		emptyMsg: emptyMsg,
		sorter:   thread.NewSorter(opts.Locale),
		bus:      opts.Bus,
		log:      opts.Logger,
	}
}

// Change returns the change this list belongs to.
func (l *List) Change() string {
	return l.change
}

// SetThreads replaces the collection. structural must be true when threads
// were added or removed; a false value on a same-sized collection patches
// the existing order in place.
func (l *List) SetThreads(threads []thread.Thread, structural bool) {
	l.threads = cloneAll(threads)
	l.sorted = l.sorter.Update(l.threads, structural, l.sorted)

	l.log.Debug().
		Str("change", l.change).
		Bool("structural", structural).
		Int("count", len(l.threads)).
		Msg("threads updated")

	if l.bus != nil {
		l.bus.PublishThreadsSynced(eventbus.ThreadsSyncedPayload{
			Change:     l.change,
			Structural: structural,
			Count:      len(l.threads),
		})
	}
}

// Sync replaces the collection, deciding from the RootID sets whether the
// change is structural. It reports the decision.
func (l *List) Sync(threads []thread.Thread) bool {
	structural := thread.IsStructural(l.threadsOrNil(), threads)
	l.SetThreads(threads, structural)
	return structural
}

// threadsOrNil keeps the first Sync structural even for an empty collection.
func (l *List) threadsOrNil() []thread.Thread {
	if l.sorted == nil {
		return nil
	}
	return l.threads
}

// Add inserts a thread. Insertion is structural and re-sorts the list.
func (l *List) Add(t thread.Thread) {
	next := append(cloneAll(l.threads), t)
	l.SetThreads(next, true)
}

// Replace swaps the thread with the same RootID without reordering.
func (l *List) Replace(t thread.Thread) error {
	i := l.indexOf(t.RootID)
	if i < 0 {
		return ErrThreadNotFound
	}

	next := cloneAll(l.threads)
	next[i] = t
	l.SetThreads(next, false)
	return nil
}

// RemoveThread discards a thread, re-sorts, and reports the discard so the
// owner of the authoritative collection can drop it. It returns false when
// no thread has the given RootID.
func (l *List) RemoveThread(rootID string) bool {
	i := l.indexOf(rootID)
	if i < 0 {
		return false
	}

	next := slices.Delete(cloneAll(l.threads), i, i+1)
	l.SetThreads(next, true)

	l.log.Debug().Str("change", l.change).Str("root_id", rootID).Msg("thread discarded")
	if l.bus != nil {
		l.bus.PublishThreadDiscarded(eventbus.ThreadDiscardedPayload{
			Change: l.change,
			RootID: rootID,
		})
	}
	return true
}

// CommentsChanged reports that a comment in the given thread was saved or
// deleted so dependent views can refresh the path.
func (l *List) CommentsChanged(rootID, path string) {
	l.log.Debug().Str("change", l.change).Str("root_id", rootID).Str("path", path).Msg("comments changed")
	if l.bus != nil {
		l.bus.PublishThreadListModified(eventbus.ThreadListModifiedPayload{
			Change: l.change,
			RootID: rootID,
			Path:   path,
		})
	}
}

// SetFilters replaces the active filters. Ordering is unaffected.
func (l *List) SetFilters(f thread.Filters) {
	l.filters = f
}

// Filters returns the active filters.
func (l *List) Filters() thread.Filters {
	return l.filters
}

// Threads returns a copy of the collection in insertion order.
func (l *List) Threads() []thread.Thread {
	return cloneAll(l.threads)
}

// Sorted returns a copy of the display order.
func (l *List) Sorted() []thread.Thread {
	return cloneAll(l.sorted)
}

// Entries returns every thread in display order with its visibility.
func (l *List) Entries() []Entry {
	entries := make([]Entry, len(l.sorted))
	for i, t := range l.sorted {
		st := thread.Annotate(t)
		entries[i] = Entry{
			Thread:  t.Clone(),
			Status:  st,
			Visible: thread.IsVisible(&t, st, l.filters),
		}
	}
	return entries
}

// Visible returns the threads to render, in display order.
func (l *List) Visible() []thread.Thread {
	var out []thread.Thread
	for _, e := range l.Entries() {
		if e.Visible {
			out = append(out, e.Thread)
		}
	}
	return out
}

// ShowDraftToggle reports whether the drafts-only toggle should be offered.
// Anonymous users have no drafts.
func (l *List) ShowDraftToggle() bool {
	return l.loggedIn
}

// EmptyMessage returns the text shown when no thread is visible.
func (l *List) EmptyMessage() string {
	return l.emptyMsg
}

func (l *List) indexOf(rootID string) int {
	return slices.IndexFunc(l.threads, func(t thread.Thread) bool {
		return t.RootID == rootID
	})
}

func cloneAll(threads []thread.Thread) []thread.Thread {
	if threads == nil {
		return nil
	}
	out := make([]thread.Thread, len(threads))
	for i, t := range threads {
		out[i] = t.Clone()
	}
	return out
}
