package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/murmur/internal"
	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/capture"
	"github.com/starford/murmur/internal/codec"
	"github.com/starford/murmur/internal/compose"
	"github.com/starford/murmur/internal/models"
	pkgconfig "github.com/starford/murmur/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(configPath, "", cfg); err != nil {
		if !errors.Is(err, pkgconfig.ErrNotFound) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		// No config file: run on defaults.
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default config: %w", err)
		}
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the protocol.
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

// withApp opens the collection for a one-shot command. Logs go to stderr so
// stdout stays clean for output.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := internal.Open(ctx,
			internal.WithConfig(cfg),
			internal.WithVersion(version),
			internal.WithLogOutput(os.Stderr),
		)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(ctx, cmd, app)
	}
}

func printNotes(w io.Writer, notes []models.Note) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tID\tTITLE")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Timestamp, n.ID, n.Title)
	}
	return tw.Flush()
}

func listAction(ctx context.Context, _ *cli.Command, app *internal.App) error {
	return printNotes(os.Stdout, app.Service.Query(ctx, ""))
}

func searchAction(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	term := strings.Join(cmd.Args().Slice(), " ")
	return printNotes(os.Stdout, app.Service.Query(ctx, term))
}

func addAction(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	title, content := cmd.String("title"), cmd.String("content")
	if !cmd.Bool("dictate") {
		n, err := app.Service.Add(ctx, title, content)
		if err != nil {
			if errors.Is(err, apperr.ErrEmptyContent) {
				return fmt.Errorf("content is required (or use --dictate)")
			}
			return err
		}
		fmt.Println(n.ID)
		return nil
	}

	// Each line on stdin is one finalized transcript; EOF ends dictation
	// and the note is saved.
	bridge := capture.NewReader(os.Stdin, app.Logger)
	var (
		saved   bool
		saveErr error
	)
	c := compose.New(app.Service, bridge,
		compose.WithLogger(app.Logger),
		compose.WithContext(ctx),
		compose.WithSaveHook(func(n models.Note, err error) {
			if err != nil {
				saveErr = err
				return
			}
			saved = true
			fmt.Println(n.ID)
		}),
	)
	bridge.Bind(c)
	c.Prefill(models.Draft{Title: title, Content: content})
	c.RequestSaveOnEnd()

	res, err := c.Submit(ctx)
	if err != nil {
		return err
	}
	if res.Outcome == compose.Saved {
		// Content was given up front; nothing to dictate.
		fmt.Println(res.Note.ID)
		return nil
	}
	fmt.Fprintln(os.Stderr, "Listening... end input with Ctrl-D.")

	select {
	case <-bridge.Done():
	case <-ctx.Done():
		_ = bridge.Stop()
		return ctx.Err()
	}
	if saveErr != nil {
		return saveErr
	}
	if !saved {
		return cli.Exit("nothing dictated, note not saved", 1)
	}
	return nil
}

func deleteAction(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	var (
		removed bool
		err     error
	)
	if id := cmd.String("id"); id != "" {
		removed, err = app.Service.RemoveByID(ctx, id)
	} else {
		ts := cmd.Args().First()
		if ts == "" {
			return fmt.Errorf("timestamp argument or --id is required")
		}
		removed, err = app.Service.RemoveByTimestamp(ctx, ts)
	}
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(os.Stderr, "no matching note")
	}
	return nil
}

func exportAction(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	name, body, err := app.Service.Export(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrNoNotes) {
			return cli.Exit("No notes to export.", 1)
		}
		return err
	}
	out := cmd.String("out")
	if out == "-" {
		_, err := io.WriteString(os.Stdout, body)
		return err
	}
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Println(out)
	return nil
}

func importAction(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	path := cmd.Args().First()
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return fmt.Errorf("file argument is required (use - for stdin)")
	case "-":
		data, err = io.ReadAll(os.Stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	added, skipped, err := app.Service.Import(ctx, string(data))
	if err != nil {
		return err
	}
	fmt.Printf("added: %d, skipped: %d\n", added, skipped)
	return nil
}

func shareAction(_ context.Context, cmd *cli.Command, app *internal.App) error {
	link, err := app.Service.ShareURL(models.Draft{
		Title:   cmd.String("title"),
		Content: cmd.String("content"),
	})
	if err != nil {
		return err
	}
	fmt.Println(link)
	return nil
}

// openAction decodes a share link, given either as the full URL or as the
// bare parameter value, and optionally saves it.
func openAction(ctx context.Context, cmd *cli.Command, app *internal.App) error {
	arg := cmd.Args().First()
	var (
		d  models.Draft
		ok bool
	)
	if strings.Contains(arg, "://") {
		var err error
		d, err = codec.DraftFromURL(arg)
		ok = err == nil
	} else {
		d, ok = app.Service.DecodeShareLink(arg)
	}
	if !ok {
		return cli.Exit("invalid share link", 1)
	}
	fmt.Println(codec.ShareText(models.Note{Title: d.Title, Content: d.Content}))

	if !cmd.Bool("save") {
		return nil
	}
	c := compose.New(app.Service, nil, compose.WithLogger(app.Logger))
	c.Prefill(d)
	res, err := c.Save(ctx)
	if err != nil {
		return err
	}
	if res.Outcome != compose.Saved {
		return fmt.Errorf("shared note has no content, not saved")
	}
	fmt.Println(res.Note.ID)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "murmur",
		Usage:   "Voice and text notes with search, CSV export/import and share links",
		Version: version,
		Action:  run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: run,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: runMCP,
			},
			{
				Name:   "list",
				Usage:  "List notes, most recent first",
				Action: withApp(listAction),
			},
			{
				Name:      "search",
				Usage:     "List notes whose title or content contains a term",
				ArgsUsage: "<term>",
				Action:    withApp(searchAction),
			},
			{
				Name:  "add",
				Usage: "Save a note, typed or dictated line by line on stdin",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title (derived from content when empty)"},
					&cli.StringFlag{Name: "content", Usage: "Note content"},
					&cli.BoolFlag{Name: "dictate", Aliases: []string{"d"}, Usage: "Read the content from stdin transcripts"},
				},
				Action: withApp(addAction),
			},
			{
				Name:      "delete",
				Usage:     "Delete the first note with a timestamp, or a note by ID",
				ArgsUsage: "<timestamp>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Delete by note ID instead"},
				},
				Action: withApp(deleteAction),
			},
			{
				Name:  "export",
				Usage: "Export all notes as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, - for stdout (default: notes-<time>.csv)"},
				},
				Action: withApp(exportAction),
			},
			{
				Name:      "import",
				Usage:     "Append notes from a CSV file",
				ArgsUsage: "<file|->",
				Action:    withApp(importAction),
			},
			{
				Name:  "share",
				Usage: "Print a share link for a title and content",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}},
					&cli.StringFlag{Name: "content"},
				},
				Action: withApp(shareAction),
			},
			{
				Name:      "open",
				Usage:     "Decode a share link",
				ArgsUsage: "<url|param>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "save", Usage: "Save the shared note"},
				},
				Action: withApp(openAction),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
