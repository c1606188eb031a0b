// Package jsonfile watches a directory of per-change comment files.
package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	// DefaultDebounce coalesces bursts of writes to the same change file.
	DefaultDebounce = 50 * time.Millisecond
	eventBufferSize = 100
	fileExt         = ".json"
)

// ChangeEvent reports that the comment file for a change was written.
type ChangeEvent struct {
	Change    string
	Path      string
	Timestamp time.Time
}

// WatcherOptions configures a ChangeWatcher.
type WatcherOptions struct {
	Debounce time.Duration
	Logger   zerolog.Logger
}

// ChangeWatcher watches <change>.json files in a directory using fsnotify.
type ChangeWatcher struct {
	dir      string
	debounce time.Duration
	log      zerolog.Logger
	watcher  *fsnotify.Watcher

	mu          sync.Mutex
	subscribers map[string][]chan ChangeEvent // pattern -> channels
	timers      map[string]*time.Timer        // change -> debounce timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewChangeWatcher starts watching dir, creating it if needed.
func NewChangeWatcher(dir string, opts WatcherOptions) (*ChangeWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	cw := &ChangeWatcher{
		dir:         dir,
		debounce:    debounce,
		log:         opts.Logger,
		watcher:     watcher,
		subscribers: make(map[string][]chan ChangeEvent),
		timers:      make(map[string]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}

	cw.wg.Add(1)
	go cw.run()

	return cw, nil
}

// Dir returns the watched directory.
func (cw *ChangeWatcher) Dir() string {
	return cw.dir
}

// PathFor returns the file that holds comments for change.
func (cw *ChangeWatcher) PathFor(change string) string {
	return filepath.Join(cw.dir, change+fileExt)
}

// Watch returns a channel receiving events for changes matching pattern.
// Patterns are glob expressions; empty and "*" match every change. The
// channel is closed when ctx is done or the watcher closes.
func (cw *ChangeWatcher) Watch(ctx context.Context, pattern string) (<-chan ChangeEvent, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	ch := make(chan ChangeEvent, eventBufferSize)

	cw.mu.Lock()
	cw.subscribers[pattern] = append(cw.subscribers[pattern], ch)
	cw.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			cw.unsubscribe(pattern, ch)
		case <-cw.ctx.Done():
		}
	}()

	return ch, nil
}

// Close stops watching and closes all subscriber channels.
func (cw *ChangeWatcher) Close() error {
	cw.cancel()

	cw.mu.Lock()
	for _, timer := range cw.timers {
		timer.Stop()
	}
	cw.timers = make(map[string]*time.Timer)

	for _, subs := range cw.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	cw.subscribers = make(map[string][]chan ChangeEvent)
	cw.mu.Unlock()

	err := cw.watcher.Close()
	cw.wg.Wait()
	return err
}

func (cw *ChangeWatcher) unsubscribe(pattern string, ch chan ChangeEvent) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	subs := cw.subscribers[pattern]
	for i, sub := range subs {
		if sub == ch {
			cw.subscribers[pattern] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(cw.subscribers[pattern]) == 0 {
		delete(cw.subscribers, pattern)
	}
}

func (cw *ChangeWatcher) run() {
	defer cw.wg.Done()

	for {
		select {
		case <-cw.ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleEvent(event)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.log.Warn().Err(err).Str("dir", cw.dir).Msg("watch error")
		}
	}
}

func (cw *ChangeWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	change, ok := changeFromFile(filepath.Base(event.Name))
	if !ok {
		return
	}
	path := event.Name

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.ctx.Err() != nil {
		return
	}
	if timer, exists := cw.timers[change]; exists {
		timer.Stop()
	}
	cw.timers[change] = time.AfterFunc(cw.debounce, func() {
		cw.notify(change, path)
	})
}

func (cw *ChangeWatcher) notify(change, path string) {
	event := ChangeEvent{
		Change:    change,
		Path:      path,
		Timestamp: time.Now(),
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	for pattern, subs := range cw.subscribers {
		if !matchesPattern(pattern, change) {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- event:
			default:
				cw.log.Warn().Str("change", change).Msg("subscriber full, dropping change event")
			}
		}
	}

	delete(cw.timers, change)
}

// changeFromFile maps a file name to its change. Temporary, lock and
// hidden files are ignored.
func changeFromFile(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	change := strings.TrimSuffix(name, fileExt)
	return change, change != ""
}

func matchesPattern(pattern, change string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	ok, err := doublestar.Match(pattern, change)
	return err == nil && ok
}
