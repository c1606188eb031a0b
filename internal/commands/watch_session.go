package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/colonyops/revthreads/internal/core/config"
	"github.com/colonyops/revthreads/internal/core/eventbus"
	"github.com/colonyops/revthreads/internal/core/logging"
	"github.com/colonyops/revthreads/internal/core/styles"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/pkg/iojson"
	"github.com/rs/zerolog"
)

// watchSession tracks one thread list per change across reloads. It is
// driven from a single goroutine.
type watchSession struct {
	cfg        *config.Config
	store      threadlist.FilterStore
	bus        *eventbus.EventBus
	overrides  thread.Filters
	jsonOutput bool
	log        zerolog.Logger

	lists map[string]*threadlist.List
}

// watchUpdate is the JSON line emitted for each reload.
type watchUpdate struct {
	Change     string       `json:"change"`
	Structural bool         `json:"structural"`
	Threads    []threadInfo `json:"threads"`
}

func newWatchSession(cfg *config.Config, store threadlist.FilterStore, bus *eventbus.EventBus, overrides thread.Filters, jsonOutput bool) *watchSession {
	return &watchSession{
		cfg:        cfg,
		store:      store,
		bus:        bus,
		overrides:  overrides,
		jsonOutput: jsonOutput,
		log:        logging.Component("watch"),
		lists:      make(map[string]*threadlist.List),
	}
}

// apply reconciles the list for change with a freshly loaded thread set.
// Threads that disappeared are discarded one by one, the rest is synced, and
// threads whose comments changed are reported.
func (s *watchSession) apply(ctx context.Context, change string, next []thread.Thread) (*threadlist.List, bool, error) {
	list, err := s.listFor(ctx, change)
	if err != nil {
		return nil, false, err
	}

	prev := make(map[string]thread.Thread)
	for _, t := range list.Threads() {
		prev[t.RootID] = t
	}

	present := make(map[string]bool, len(next))
	for _, t := range next {
		present[t.RootID] = true
	}
	removed := 0
	for id := range prev {
		if !present[id] && list.RemoveThread(id) {
			removed++
		}
	}

	// Discards already re-sorted the list, so Sync alone sees no structural change.
	structural := list.Sync(next) || removed > 0

	for _, t := range next {
		old, ok := prev[t.RootID]
		if ok && commentsChanged(old, t) {
			list.CommentsChanged(t.RootID, t.Path)
		}
	}

	return list, structural, nil
}

func (s *watchSession) listFor(ctx context.Context, change string) (*threadlist.List, error) {
	if list, ok := s.lists[change]; ok {
		return list, nil
	}

	filters, err := s.filtersFor(ctx, change)
	if err != nil {
		return nil, err
	}

	tag, err := s.cfg.Collation.Tag()
	if err != nil {
		return nil, err
	}

	list := threadlist.New(threadlist.Options{
		Change:       change,
		Filters:      filters,
		LoggedIn:     s.cfg.Display.LoggedIn,
		EmptyMessage: s.cfg.Display.EmptyMessage,
		Locale:       tag,
		Bus:          s.bus,
		Logger:       logging.Component("threadlist"),
	})
	s.lists[change] = list
	return list, nil
}

func (s *watchSession) filtersFor(ctx context.Context, change string) (thread.Filters, error) {
	f, err := threadlist.ResolveFilters(ctx, s.store, change, s.overrides, s.cfg.Filters.Filters())
	if err != nil {
		return thread.Filters{}, fmt.Errorf("load filters for %s: %w", change, err)
	}
	return anonymousFilters(f, s.cfg.Display.LoggedIn), nil
}

// reload swaps in a new config. Lists are rebuilt when locale or display
// settings change; otherwise only their filters are re-resolved.
func (s *watchSession) reload(ctx context.Context, cfg *config.Config) error {
	prev := s.cfg
	s.cfg = cfg

	palette, _ := styles.GetPalette(cfg.Display.Theme)
	styles.SetTheme(palette)

	if prev.Collation.Locale != cfg.Collation.Locale ||
		prev.Display.LoggedIn != cfg.Display.LoggedIn ||
		prev.Display.EmptyMessage != cfg.Display.EmptyMessage {
		old := s.lists
		s.lists = make(map[string]*threadlist.List, len(old))
		for change, list := range old {
			threads := list.Threads()
			fresh, err := s.listFor(ctx, change)
			if err != nil {
				return err
			}
			fresh.SetThreads(threads, true)
		}
	} else {
		for change, list := range s.lists {
			f, err := s.filtersFor(ctx, change)
			if err != nil {
				return err
			}
			list.SetFilters(f)
		}
	}

	if s.bus != nil {
		s.bus.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Config: cfg})
	}
	return nil
}

func (s *watchSession) render(w io.Writer, list *threadlist.List, structural bool) error {
	entries := list.Entries()

	if s.jsonOutput {
		update := watchUpdate{Change: list.Change(), Structural: structural, Threads: []threadInfo{}}
		for _, e := range entries {
			if e.Visible {
				update.Threads = append(update.Threads, toThreadInfo(e))
			}
		}
		return iojson.WriteLine(w, update)
	}

	_, _ = fmt.Fprintln(w, styles.DividerStyle.Render("── ")+styles.PathStyle.Render(list.Change()))
	renderTable(w, entries, list.ShowDraftToggle(), list.EmptyMessage())
	return nil
}

// commentsChanged reports whether a thread gained, lost or edited comments.
func commentsChanged(a, b thread.Thread) bool {
	if len(a.Comments) != len(b.Comments) {
		return true
	}
	for i := range a.Comments {
		x, y := a.Comments[i], b.Comments[i]
		if x.ID != y.ID || x.Message != y.Message || !x.Updated.Equal(y.Updated) ||
			x.IsUnresolved() != y.IsUnresolved() || x.Draft != y.Draft {
			return true
		}
	}
	return false
}
