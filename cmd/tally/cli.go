package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/ops"
	"github.com/hpungsan/tally/internal/store"
	"github.com/hpungsan/tally/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "tally",
		Usage:   "Anonymous scheduling polls",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Usage: "Data directory (default: ~/.tally)"},
		},
		Commands: []*cli.Command{
			serveCmd(),
			createCmd(),
			showCmd(),
			listCmd(),
			exportCmd(),
			importCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// openEnv resolves the data directory, loads config, and opens the
// configured store. The caller closes the store.
func openEnv(c *cli.Context) (store.Store, *config.Config, error) {
	baseDir := c.String("data")
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".tally")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(baseDir, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, cfg, nil
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			st, cfg, err := openEnv(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer st.Close()

			srv := web.NewServer(st, cfg, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// createCmd creates the create command.
func createCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a new poll",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Poll title (required)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Poll description"},
			&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author name"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Edit password (omit for an uneditable poll)"},
			&cli.StringSliceFlag{Name: "option", Aliases: []string{"o"}, Usage: "Poll option (repeatable)"},
			&cli.BoolFlag{Name: "exclusive", Usage: "Voters pick exactly one option"},
		},
		Action: func(c *cli.Context) error {
			st, cfg, err := openEnv(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer st.Close()

			output, err := ops.Create(c.Context, st, cfg, ops.CreateInput{
				Title:       c.String("title"),
				Description: c.String("description"),
				Author:      c.String("author"),
				Password:    c.String("password"),
				Options:     c.StringSlice("option"),
				Exclusive:   c.Bool("exclusive"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a poll and its tally",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("poll id is required"))
			}

			st, cfg, err := openEnv(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer st.Close()

			output, err := ops.Fetch(c.Context, st, cfg, ops.FetchInput{PollID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all polls",
		Action: func(c *cli.Context) error {
			st, cfg, err := openEnv(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer st.Close()

			output, err := ops.List(c.Context, st, cfg, ops.ListInput{})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all polls to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Destination file (default: ~/.tally/exports/polls-<ulid>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			st, cfg, err := openEnv(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer st.Close()

			output, err := ops.Export(c.Context, st, cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import polls from a JSONL export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Source file (required)"},
			&cli.StringFlag{Name: "mode", Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			st, cfg, err := openEnv(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer st.Close()

			output, err := ops.Import(c.Context, st, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
