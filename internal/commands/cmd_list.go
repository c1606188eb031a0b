package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/colonyops/revthreads/internal/core/config"
	"github.com/colonyops/revthreads/internal/core/logging"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/internal/gerrit"
	"github.com/colonyops/revthreads/pkg/iojson"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

type ListCmd struct {
	flags *Flags
	app   *App

	// flags
	input      iojson.FileReader[gerrit.ChangeComments]
	change     string
	paths      []string
	all        bool
	save       bool
	jsonOutput bool
	toggles    toggleFlags
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags, app *App) *ListCmd {
	return &ListCmd{
		flags: flags,
		app:   app,
		input: iojson.FileReader[gerrit.ChangeComments]{
			Decode: gerrit.Decode,
			Usage:  "path to a Gerrit comments JSON file (reads from stdin if not provided)",
		},
	}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	flags := []cli.Flag{
		cmd.input.Flag(),
		&cli.StringFlag{
			Name:        "change",
			Usage:       "change identifier used for saved filters (defaults to the file name)",
			Destination: &cmd.change,
		},
		&cli.StringSliceFlag{
			Name:        "path",
			Aliases:     []string{"p"},
			Usage:       "only include threads on files matching the glob (repeatable)",
			Destination: &cmd.paths,
		},
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "ignore saved and default filters",
			Destination: &cmd.all,
		},
		&cli.BoolFlag{
			Name:        "save",
			Usage:       "remember the toggles given on the command line for this change",
			Destination: &cmd.save,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON lines",
			Destination: &cmd.jsonOutput,
		},
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List comment threads for a change",
		UsageText: "revthreads list [-f FILE] [--change ID] [toggles] [--path GLOB] [--json]",
		Description: `Reads Gerrit comments, drafts and robot comments, groups them into threads
and prints them in review order: unresolved first, then threads with drafts,
then by file, line and recency.

Toggles given on the command line win over toggles saved for the change, which
win over the defaults in the config file. Use --save to remember them.`,
		Flags:  append(flags, cmd.toggles.flags()...),
		Action: cmd.run,
	})

	return app
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	change := changeName(cmd.change, cmd.input.Path())
	ctx = logging.WithChange(ctx, change)
	logger := logging.Component("list").With().Ctx(ctx).Logger()

	cc, err := cmd.input.Read()
	if err != nil {
		return fmt.Errorf("read comments: %w", err)
	}

	threads, err := filterPaths(gerrit.Threads(cc), cmd.paths)
	if err != nil {
		return err
	}

	overrides := cmd.toggles.overrides(c)
	if cmd.save {
		if change == "" {
			return fmt.Errorf("--save needs --change or a named input file")
		}
		if cmd.app.Filters == nil {
			return fmt.Errorf("--save needs the preferences database")
		}
		if _, err := cmd.app.Filters.UpdateFilters(ctx, change, overrides); err != nil {
			return err
		}
	}

	filters, err := resolveListFilters(ctx, cfg, cmd.app, change, overrides, cmd.all)
	if err != nil {
		return err
	}

	list, err := newList(cfg, cmd.app, change, filters)
	if err != nil {
		return err
	}
	list.Sync(threads)

	logger.Debug().Int("comments", cc.Len()).Int("threads", len(threads)).Msg("listing threads")

	return writeList(c.Root().Writer, list, cmd.jsonOutput)
}

// resolveListFilters layers command line toggles over saved and default
// toggles. With all set, only the command line toggles apply.
func resolveListFilters(ctx context.Context, cfg *config.Config, app *App, change string, overrides thread.Filters, all bool) (thread.Filters, error) {
	if all {
		return overrides.Merge(thread.NewFilters(false, false, false)), nil
	}

	var store threadlist.FilterStore
	if app.Filters != nil {
		store = app.Filters
	}

	f, err := threadlist.ResolveFilters(ctx, store, change, overrides, cfg.Filters.Filters())
	if err != nil {
		return thread.Filters{}, fmt.Errorf("load filters: %w", err)
	}
	return anonymousFilters(f, cfg.Display.LoggedIn), nil
}

// newList builds an empty thread list using the display settings from cfg.
func newList(cfg *config.Config, app *App, change string, filters thread.Filters) (*threadlist.List, error) {
	tag, err := cfg.Collation.Tag()
	if err != nil {
		return nil, err
	}

	return threadlist.New(threadlist.Options{
		Change:       change,
		Filters:      filters,
		LoggedIn:     cfg.Display.LoggedIn,
		EmptyMessage: cfg.Display.EmptyMessage,
		Locale:       tag,
		Bus:          app.Bus,
		Logger:       logging.Component("threadlist"),
	}), nil
}

// writeList prints the visible threads as JSON lines or as a table.
func writeList(w io.Writer, list *threadlist.List, jsonOutput bool) error {
	entries := list.Entries()

	if jsonOutput {
		for _, e := range entries {
			if !e.Visible {
				continue
			}
			if err := iojson.WriteLine(w, toThreadInfo(e)); err != nil {
				return fmt.Errorf("encode thread: %w", err)
			}
		}
		return nil
	}

	renderTable(w, entries, list.ShowDraftToggle(), list.EmptyMessage())
	return nil
}

// anonymousFilters turns the drafts toggle off for users who cannot have drafts.
func anonymousFilters(f thread.Filters, loggedIn bool) thread.Filters {
	if loggedIn || f.DraftsOnly == nil || !*f.DraftsOnly {
		return f
	}
	log.Warn().Msg("drafts-only ignored: not logged in")
	off := false
	f.DraftsOnly = &off
	return f
}
