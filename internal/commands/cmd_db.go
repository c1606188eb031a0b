package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/colonyops/revthreads/internal/core/styles"
	"github.com/colonyops/revthreads/internal/data/db"
	"github.com/colonyops/revthreads/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type DBCmd struct {
	flags *Flags
	app   *App

	// flags
	steps      int
	jsonOutput bool
}

// NewDBCmd creates a new db command
func NewDBCmd(flags *Flags, app *App) *DBCmd {
	return &DBCmd{flags: flags, app: app}
}

// migrationInfo is the JSON output format for a migration.
type migrationInfo struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Applied bool   `json:"applied"`
}

// Register adds the db command to the application
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Inspect and maintain the preferences database",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Manage schema migrations",
				Commands: []*cli.Command{
					{
						Name:      "status",
						Usage:     "List schema migrations and whether they are applied",
						UsageText: "revthreads db migrate status [--json]",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:        "json",
								Usage:       "output as JSON lines",
								Destination: &cmd.jsonOutput,
							},
						},
						Action: cmd.runStatus,
					},
					{
						Name:      "down",
						Usage:     "Revert the most recent schema migrations",
						UsageText: "revthreads db migrate down [--steps N]",
						Description: `Reverts the last N applied migrations, newest first. Reverting the
table migration discards every saved filter toggle.

Pending migrations are applied again the next time revthreads opens the
database, so 'db migrate down --steps 2' followed by any command resets the
schema.`,
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:        "steps",
								Aliases:     []string{"n"},
								Usage:       "number of migrations to revert",
								Value:       1,
								Destination: &cmd.steps,
							},
						},
						Action: cmd.runDown,
					},
				},
			},
		},
	})

	return app
}

func (cmd *DBCmd) database() (*db.DB, error) {
	if cmd.app.DB == nil {
		return nil, fmt.Errorf("preferences database is not open")
	}
	return cmd.app.DB, nil
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	database, err := cmd.database()
	if err != nil {
		return err
	}

	status, err := db.Status(ctx, database.Conn())
	if err != nil {
		return err
	}

	out := c.Root().Writer
	if cmd.jsonOutput {
		for _, s := range status {
			if err := iojson.WriteLine(out, migrationInfo{Version: s.Version, Name: s.Name, Applied: s.Applied}); err != nil {
				return fmt.Errorf("encode migration: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	for _, s := range status {
		state := styles.MutedStyle.Render("pending")
		if s.Applied {
			state = "applied"
		}
		_, _ = fmt.Fprintf(w, "%04d\t%s\t%s\n", s.Version, s.Name, state)
	}
	return w.Flush()
}

func (cmd *DBCmd) runDown(ctx context.Context, c *cli.Command) error {
	database, err := cmd.database()
	if err != nil {
		return err
	}

	if err := db.MigrateDown(ctx, database.Conn(), cmd.steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	_, _ = fmt.Fprintf(c.Root().Writer, "reverted %d migration(s)\n", cmd.steps)
	return nil
}
