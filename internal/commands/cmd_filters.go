package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/colonyops/revthreads/internal/core/styles"
	"github.com/colonyops/revthreads/internal/core/thread"
	"github.com/colonyops/revthreads/internal/core/threadlist"
	"github.com/colonyops/revthreads/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type FiltersCmd struct {
	flags *Flags
	app   *App

	// flags
	change     string
	jsonOutput bool
	toggles    toggleFlags
}

// NewFiltersCmd creates a new filters command
func NewFiltersCmd(flags *Flags, app *App) *FiltersCmd {
	return &FiltersCmd{flags: flags, app: app}
}

// filtersInfo is the JSON output format for saved filters.
type filtersInfo struct {
	Change         string `json:"change"`
	UnresolvedOnly *bool  `json:"unresolved_only"`
	DraftsOnly     *bool  `json:"drafts_only"`
	RobotReplyOnly *bool  `json:"robot_reply_only"`
}

// Register adds the filters command to the application
func (cmd *FiltersCmd) Register(app *cli.Command) *cli.Command {
	changeFlag := &cli.StringFlag{
		Name:        "change",
		Usage:       "change identifier",
		Required:    true,
		Destination: &cmd.change,
	}
	jsonFlag := &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON",
		Destination: &cmd.jsonOutput,
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "filters",
		Usage: "Manage filter toggles saved per change",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show the effective toggles for a change",
				UsageText: "revthreads filters get --change ID [--json]",
				Flags:     []cli.Flag{changeFlag, jsonFlag},
				Action:    cmd.runGet,
			},
			{
				Name:      "set",
				Usage:     "Save toggles for a change",
				UsageText: "revthreads filters set --change ID [--unresolved-only[=false]] [--drafts-only[=false]] [--robot-reply[=false]]",
				Description: `Only the toggles given are changed; the others keep their saved value.
Use --unresolved-only=false to turn a saved toggle off.`,
				Flags:  append([]cli.Flag{changeFlag, jsonFlag}, cmd.toggles.flags()...),
				Action: cmd.runSet,
			},
			{
				Name:      "ls",
				Usage:     "List every change with saved toggles",
				UsageText: "revthreads filters ls [--json]",
				Flags:     []cli.Flag{jsonFlag},
				Action:    cmd.runList,
			},
			{
				Name:      "clear",
				Usage:     "Forget the toggles saved for a change",
				UsageText: "revthreads filters clear --change ID",
				Flags:     []cli.Flag{changeFlag},
				Action:    cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *FiltersCmd) runGet(ctx context.Context, c *cli.Command) error {
	f, err := threadlist.ResolveFilters(ctx, cmd.app.Filters, cmd.change, thread.Filters{}, cmd.flags.Config.Filters.Filters())
	if err != nil {
		return fmt.Errorf("load filters: %w", err)
	}
	return cmd.print(c, cmd.change, f)
}

func (cmd *FiltersCmd) runSet(ctx context.Context, c *cli.Command) error {
	overrides := cmd.toggles.overrides(c)
	if overrides == (thread.Filters{}) {
		return fmt.Errorf("no toggles given")
	}

	merged, err := cmd.app.Filters.UpdateFilters(ctx, cmd.change, overrides)
	if err != nil {
		return err
	}
	return cmd.print(c, cmd.change, merged.Merge(cmd.flags.Config.Filters.Filters()))
}

func (cmd *FiltersCmd) runList(ctx context.Context, c *cli.Command) error {
	saved, err := cmd.app.Filters.List(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, s := range saved {
			if err := iojson.WriteLine(out, toFiltersInfo(s.Change, s.Filters)); err != nil {
				return fmt.Errorf("encode filters: %w", err)
			}
		}
		return nil
	}

	if len(saved) == 0 {
		_, _ = fmt.Fprintln(out, styles.MutedStyle.Render("No saved filters."))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CHANGE\tUNRESOLVED\tDRAFTS\tROBOT-REPLY\tUPDATED")
	for _, s := range saved {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Change,
			toggleText(s.Filters.UnresolvedOnly),
			toggleText(s.Filters.DraftsOnly),
			toggleText(s.Filters.OnlyRobotCommentsWithHumanReply),
			s.UpdatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func (cmd *FiltersCmd) runClear(ctx context.Context, c *cli.Command) error {
	removed, err := cmd.app.Filters.DeleteFilters(ctx, cmd.change)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("change %s: %w", cmd.change, threadlist.ErrNoFilters)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Cleared filters for %s\n", cmd.change)
	return nil
}

func (cmd *FiltersCmd) print(c *cli.Command, change string, f thread.Filters) error {
	out := c.Root().Writer
	if cmd.jsonOutput {
		return iojson.WriteLine(out, toFiltersInfo(change, f))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "unresolved-only\t%s\n", toggleText(f.UnresolvedOnly))
	_, _ = fmt.Fprintf(w, "drafts-only\t%s\n", toggleText(f.DraftsOnly))
	_, _ = fmt.Fprintf(w, "robot-reply\t%s\n", toggleText(f.OnlyRobotCommentsWithHumanReply))
	return w.Flush()
}

func toFiltersInfo(change string, f thread.Filters) filtersInfo {
	return filtersInfo{
		Change:         change,
		UnresolvedOnly: f.UnresolvedOnly,
		DraftsOnly:     f.DraftsOnly,
		RobotReplyOnly: f.OnlyRobotCommentsWithHumanReply,
	}
}

func toggleText(b *bool) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatBool(*b)
}

