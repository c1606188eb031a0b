package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/colonyops/revthreads/internal/core/config"
	"github.com/colonyops/revthreads/internal/core/styles"
	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type ConfigCmd struct {
	flags  *Flags
	format string
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "revthreads config validate [--format text|json]",
				Description: "Validates the configuration file, checking the collation locale, theme, includes and data directory.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.runValidate,
			},
			{
				Name:      "show",
				Usage:     "Print the effective configuration",
				UsageText: "revthreads config show",
				Action:    cmd.runShow,
			},
		},
	})

	return app
}

// validationError is one failed field.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	errs := fieldErrors(cfg.ValidateDeep(cmd.flags.ConfigPath))
	warnings := cfg.Warnings()
	out := c.Root().Writer

	if cmd.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Valid    bool                       `json:"valid"`
			Errors   []validationError          `json:"errors,omitempty"`
			Warnings []config.ValidationWarning `json:"warnings,omitempty"`
		}{
			Valid:    len(errs) == 0,
			Errors:   errs,
			Warnings: warnings,
		}); err != nil {
			return err
		}
		if len(errs) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	for _, w := range warnings {
		_, _ = fmt.Fprintf(out, "%s %s: %s\n", styles.DraftBadge.Render("warn"), w.Category, w.Message)
		if w.Item != "" {
			_, _ = fmt.Fprintf(out, "  Item: %s\n", w.Item)
		}
	}
	for _, e := range errs {
		_, _ = fmt.Fprintf(out, "%s %s: %s\n", styles.UnresolvedBadge.Render("error"), e.Field, e.Message)
	}

	_, _ = fmt.Fprintln(out)
	if len(errs) == 0 {
		_, _ = fmt.Fprintln(out, styles.ResolvedBadge.Render("Configuration is valid"))
		return nil
	}

	_, _ = fmt.Fprintln(out, styles.UnresolvedBadge.Render(fmt.Sprintf("%d error(s) found", len(errs))))
	return cli.Exit("", 1)
}

func (cmd *ConfigCmd) runShow(ctx context.Context, c *cli.Command) error {
	enc := yaml.NewEncoder(c.Root().Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cmd.flags.Config); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// fieldErrors flattens a validation error into per-field entries.
func fieldErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fe criterio.FieldErrors
	if errors.As(err, &fe) {
		out := make([]validationError, 0, len(fe))
		for _, e := range fe {
			out = append(out, validationError{Field: e.Field, Message: e.Err.Error()})
		}
		return out
	}
	return []validationError{{Field: "config", Message: err.Error()}}
}
