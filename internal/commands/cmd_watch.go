package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colonyops/revthreads/internal/core/config"
	"github.com/colonyops/revthreads/internal/core/eventbus"
	"github.com/colonyops/revthreads/internal/core/logging"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/internal/gerrit"
	"github.com/colonyops/revthreads/internal/store/jsonfile"
	"github.com/urfave/cli/v3"
)

type WatchCmd struct {
	flags *Flags
	app   *App

	// flags
	dir        string
	pattern    string
	jsonOutput bool
	toggles    toggleFlags
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags, app *App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"d"},
			Usage:       "directory of <change>.json files (defaults to <data-dir>/changes)",
			Destination: &cmd.dir,
		},
		&cli.StringFlag{
			Name:        "change",
			Usage:       "only watch changes matching the glob",
			Value:       "*",
			Destination: &cmd.pattern,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output one JSON line per reload",
			Destination: &cmd.jsonOutput,
		},
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Re-list threads whenever a change file is written",
		UsageText: "revthreads watch [--dir DIR] [--change GLOB] [toggles] [--json]",
		Description: `Watches a directory of Gerrit comment files named <change>.json and prints
the thread list for a change each time its file is rewritten.

Edits that keep the same set of threads do not reorder the list; adding or
removing threads re-sorts it. Send SIGHUP to reload the config file.`,
		Flags:  append(flags, cmd.toggles.flags()...),
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	logger := logging.Component("watch")

	dir := cmd.dir
	if dir == "" {
		dir = ChangesDir(cfg.DataDir)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	watcher, err := jsonfile.NewChangeWatcher(dir, jsonfile.WatcherOptions{
		Debounce: cfg.Watch.Debounce,
		Logger:   logging.Component("watcher"),
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer func() { _ = watcher.Close() }()

	events, err := watcher.Watch(ctx, cmd.pattern)
	if err != nil {
		return fmt.Errorf("invalid --change pattern: %w", err)
	}

	var store threadlist.FilterStore
	if cmd.app.Filters != nil {
		store = cmd.app.Filters
	}
	session := newWatchSession(cfg, store, cmd.app.Bus, cmd.toggles.overrides(c), cmd.jsonOutput)

	if cmd.app.Bus != nil {
		eventbus.NewNotificationRouter(cmd.app.Bus).Register()
		cmd.app.Bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
			ev := logger.Info()
			if p.Level == eventbus.LevelWarning {
				ev = logger.Warn()
			}
			ev.Msg(p.Message)
		})
	}

	out := c.Root().Writer
	load := func(change, path string) {
		ctx := logging.WithChange(ctx, change)
		if err := cmd.reloadChange(ctx, session, change, path, out); err != nil {
			logger.Warn().Err(err).Ctx(ctx).Str("path", path).Msg("reload failed")
		}
	}

	existing, err := existingChanges(dir, cmd.pattern)
	if err != nil {
		return err
	}
	for _, change := range existing {
		load(change, watcher.PathFor(change))
	}

	logger.Info().Str("dir", dir).Str("pattern", cmd.pattern).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			next, err := config.Load(cmd.flags.ConfigPath, cmd.flags.DataDir)
			if err != nil {
				logger.Error().Err(err).Msg("config reload failed, keeping previous config")
				continue
			}
			if err := session.reload(ctx, next); err != nil {
				logger.Error().Err(err).Msg("apply reloaded config")
				continue
			}
			cmd.flags.Config = next
			logger.Info().Msg("config reloaded")
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			load(ev.Change, ev.Path)
		}
	}
}

func (cmd *WatchCmd) reloadChange(ctx context.Context, session *watchSession, change, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cc, err := gerrit.Decode(f)
	if errors.Is(err, gerrit.ErrEmptyInput) {
		// Writers truncate before writing; wait for the next event.
		return nil
	}
	if err != nil {
		return err
	}

	list, structural, err := session.apply(ctx, change, gerrit.Threads(cc))
	if err != nil {
		return err
	}
	return session.render(out, list, structural)
}

// existingChanges lists changes already present in dir that match pattern.
func existingChanges(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	var changes []string
	for _, m := range matches {
		name := filepath.Base(m)
		if name[0] == '.' {
			continue
		}
		change := changeName("", name)
		if pattern == "" || pattern == "*" {
			changes = append(changes, change)
			continue
		}
		if ok, _ := doublestar.Match(pattern, change); ok {
			changes = append(changes, change)
		}
	}
	return changes, nil
}
