package thread

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sorter orders threads. A Sorter holds a collator with internal buffers and
// must not be shared between goroutines; the package-level helpers allocate
// their own.
type Sorter struct {
	col *collate.Collator
}

// NewSorter returns a Sorter that compares paths and IDs using the collation
// rules of the given locale.
func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{col: collate.New(tag)}
}

// Compare orders a before b (negative), after b (positive), or reports a tie.
// Criteria, highest priority first:
//
//  1. unresolved before resolved
//  2. has draft before no draft
//  3. path, collated ascending
//  4. file-level before line comments, then ascending line
//  5. most recently updated first
//  6. last comment ID, collated ascending; a missing ID is a tie
func (s *Sorter) Compare(a, b Thread) int {
	return s.compare(entry{thread: a, status: Annotate(a)}, entry{thread: b, status: Annotate(b)})
}

// Sort returns a new slice holding threads in comparator order. Threads that
// tie on every criterion keep their input order.
func (s *Sorter) Sort(threads []Thread) []Thread {
	entries := make([]entry, len(threads))
	for i, t := range threads {
		entries[i] = entry{thread: t, status: Annotate(t)}
	}

	slices.SortStableFunc(entries, s.compare)

	out := make([]Thread, len(entries))
	for i, e := range entries {
		out[i] = e.thread
	}
	return out
}

// Update returns the ordered sequence for threads given the previously
// sorted sequence.
//
// When prior has the same length as threads and the change is not
// structural, each prior entry is swapped for the thread with the same
// RootID and the existing order is kept, even if the new content would sort
// differently. This avoids reordering the list while a user edits a draft or
// a reply arrives. Any other case is a full sort.
func (s *Sorter) Update(threads []Thread, structural bool, prior []Thread) []Thread {
	if prior == nil || structural || len(prior) != len(threads) {
		return s.Sort(threads)
	}

	index := make(map[string]int, len(prior))
	for i, t := range prior {
		index[t.RootID] = i
	}

	patched := make([]Thread, len(prior))
	copy(patched, prior)
	for _, t := range threads {
		i, ok := index[t.RootID]
		if !ok {
			// Same length but a different RootID set: a thread was swapped
			// for another one, which is a structural change.
			return s.Sort(threads)
		}
		patched[i] = t.Clone()
	}
	return patched
}

type entry struct {
	thread Thread
	status Status
}

func (s *Sorter) compare(a, b entry) int {
	if c := compareFlag(a.status.Unresolved, b.status.Unresolved); c != 0 {
		return c
	}

	if c := compareFlag(a.status.HasDraft, b.status.HasDraft); c != 0 {
		return c
	}

	if a.thread.Path != b.thread.Path {
		if c := s.collate(a.thread.Path, b.thread.Path); c != 0 {
			return c
		}
	}

	switch {
	case a.thread.IsFileLevel() && !b.thread.IsFileLevel():
		return -1
	case !a.thread.IsFileLevel() && b.thread.IsFileLevel():
		return 1
	case a.thread.Line != b.thread.Line:
		return cmp.Compare(a.thread.Line, b.thread.Line)
	}

	if c := b.status.EffectiveUpdated.Compare(a.status.EffectiveUpdated); c != 0 {
		return c
	}

	if a.status.LastID == "" || b.status.LastID == "" {
		return 0
	}
	return s.collate(a.status.LastID, b.status.LastID)
}

// collate compares using the locale collator and falls back to a byte-wise
// comparison for distinct strings the collator considers equal.
func (s *Sorter) collate(a, b string) int {
	if c := s.col.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareFlag orders true before false.
func compareFlag(a, b bool) int {
	switch {
	case a && !b:
		return -1
	case !a && b:
		return 1
	default:
		return 0
	}
}

// Compare orders two threads with the default (root locale) collation.
func Compare(a, b Thread) int {
	return NewSorter(language.Und).Compare(a, b)
}

// Sort orders threads with the default collation.
func Sort(threads []Thread) []Thread {
	return NewSorter(language.Und).Sort(threads)
}

// Update is Sorter.Update with the default collation.
func Update(threads []Thread, structural bool, prior []Thread) []Thread {
	return NewSorter(language.Und).Update(threads, structural, prior)
}

// IsStructural reports whether moving from prev to next adds or removes
// threads. Only a same-length collection with the same RootID set counts as
// an in-place replacement.
func IsStructural(prev, next []Thread) bool {
	if prev == nil || len(prev) != len(next) {
		return true
	}

	ids := make(map[string]struct{}, len(prev))
	for _, t := range prev {
		ids[t.RootID] = struct{}{}
	}
	for _, t := range next {
		if _, ok := ids[t.RootID]; !ok {
			return true
		}
	}
	return false
}
