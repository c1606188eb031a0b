package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/revthreads/internal/core/logging"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/internal/gerrit"
	"github.com/colonyops/revthreads/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// ErrNotLoggedIn is returned when a draft is requested by an anonymous user.
var ErrNotLoggedIn = errors.New("drafts need a logged-in user (display.logged_in)")

type DraftCmd struct {
	flags *Flags
	app   *App
	now   func() time.Time

	// flags
	input      iojson.FileReader[gerrit.ChangeComments]
	change     string
	path       string
	line       int
	reply      string
	message    string
	resolve    bool
	all        bool
	jsonOutput bool
	toggles    toggleFlags
}

// NewDraftCmd creates a new draft command
func NewDraftCmd(flags *Flags, app *App) *DraftCmd {
	return &DraftCmd{
		flags: flags,
		app:   app,
		now:   time.Now,
		input: iojson.FileReader[gerrit.ChangeComments]{
			Decode: gerrit.Decode,
			Usage:  "path to a Gerrit comments JSON file (reads from stdin if not provided)",
		},
	}
}

// Register adds the draft command to the application
func (cmd *DraftCmd) Register(app *cli.Command) *cli.Command {
	flags := []cli.Flag{
		cmd.input.Flag(),
		&cli.StringFlag{
			Name:        "change",
			Usage:       "change identifier used for saved filters (defaults to the file name)",
			Destination: &cmd.change,
		},
		&cli.StringFlag{
			Name:        "path",
			Usage:       "file the new thread is attached to (patchset level when empty)",
			Destination: &cmd.path,
		},
		&cli.IntFlag{
			Name:        "line",
			Usage:       "line the new thread is attached to (0 for the whole file)",
			Destination: &cmd.line,
		},
		&cli.StringFlag{
			Name:        "reply",
			Aliases:     []string{"r"},
			Usage:       "root ID of the thread to reply to instead of starting a new one",
			Destination: &cmd.reply,
		},
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "draft text",
			Required:    true,
			Destination: &cmd.message,
		},
		&cli.BoolFlag{
			Name:        "resolve",
			Usage:       "mark the thread resolved with this draft",
			Destination: &cmd.resolve,
		},
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "ignore saved and default filters",
			Destination: &cmd.all,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "output as JSON lines",
			Destination: &cmd.jsonOutput,
		},
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "draft",
		Usage:     "Preview a change's threads with a draft being composed",
		UsageText: "revthreads draft [-f FILE] (--path PATH [--line N] | --reply ROOT_ID) -m TEXT [toggles] [--json]",
		Description: `Adds a draft to the change's threads and prints the list as the review UI
would show it while the draft is open for editing. A thread being edited is
always shown, even when the active toggles would hide it.

A reply keeps the thread in its current position. A new thread is placed by
the normal ordering rules.

Drafts are held in memory for this command only and are never saved.`,
		Flags:  append(flags, cmd.toggles.flags()...),
		Action: cmd.run,
	})

	return app
}

func (cmd *DraftCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if !cfg.Display.LoggedIn {
		return ErrNotLoggedIn
	}

	change := changeName(cmd.change, cmd.input.Path())
	ctx = logging.WithChange(ctx, change)
	logger := logging.Component("draft").With().Ctx(ctx).Logger()

	cc, err := cmd.input.Read()
	if err != nil {
		return fmt.Errorf("read comments: %w", err)
	}

	filters, err := resolveListFilters(ctx, cfg, cmd.app, change, cmd.toggles.overrides(c), cmd.all)
	if err != nil {
		return err
	}

	list, err := newList(cfg, cmd.app, change, filters)
	if err != nil {
		return err
	}
	list.Sync(gerrit.Threads(cc))

	if cmd.reply != "" {
		t, ok := findThread(list.Threads(), cmd.reply)
		if !ok {
			return fmt.Errorf("reply to %s: %w", cmd.reply, threadlist.ErrThreadNotFound)
		}
		if err := list.Replace(t.Reply(cmd.message, !cmd.resolve, cmd.now())); err != nil {
			return fmt.Errorf("reply to %s: %w", cmd.reply, err)
		}
		logger.Debug().Str("root_id", cmd.reply).Msg("draft reply added")
	} else {
		t, err := cmd.newThread()
		if err != nil {
			return err
		}
		list.Add(t)
		logger.Debug().Str("root_id", t.RootID).Msg("draft thread added")
	}

	return writeList(c.Root().Writer, list, cmd.jsonOutput)
}

func findThread(threads []thread.Thread, rootID string) (thread.Thread, bool) {
	for _, t := range threads {
		if t.RootID == rootID {
			return t, true
		}
	}
	return thread.Thread{}, false
}

func (cmd *DraftCmd) newThread() (thread.Thread, error) {
	path := cmd.path
	if path == "" {
		path = thread.PatchsetLevelPath
	}

	switch {
	case cmd.line < 0:
		return thread.Thread{}, fmt.Errorf("invalid line %d", cmd.line)
	case path == thread.PatchsetLevelPath && cmd.line != 0:
		return thread.Thread{}, fmt.Errorf("patchset-level comments cannot have a line")
	}

	t := thread.NewDraft(path, cmd.line, cmd.message, cmd.now())
	if cmd.resolve {
		resolved := false
		t.Comments[0].Unresolved = &resolved
	}
	return t, nil
}
