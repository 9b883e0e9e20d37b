package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ironsheep/image-text-mcp/internal/config"
	"github.com/ironsheep/image-text-mcp/internal/convert"
	"github.com/ironsheep/image-text-mcp/internal/encoder"
	"github.com/ironsheep/image-text-mcp/internal/httpapi"
	"github.com/ironsheep/image-text-mcp/internal/server"
	"github.com/ironsheep/image-text-mcp/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "image-text",
		Usage:     "Encode images as quadrant hex text",
		Version:   fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				EnvVars: []string{"IMAGE_TEXT_CONFIG"},
				Usage:   "path to YAML config file",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: runMCP,
			},
			{
				Name:   "serve",
				Usage:  "Serve the image-to-text HTTP endpoint",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "listen port (overrides config)",
					},
				},
			},
			{
				Name:      "encode",
				Usage:     "Encode image files",
				ArgsUsage: "FILE...",
				Action:    runEncode,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "write <name>.txt for each FILE into `DIR` instead of stdout",
					},
					&cli.StringFlag{
						Name:  "preview",
						Usage: "write the normalized canvas to `FILE` (.png or .jpg)",
					},
					&cli.BoolFlag{
						Name:  "stats",
						Usage: "print encoding statistics to stderr",
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Watch a directory and write a .txt next to each new image",
				ArgsUsage: "DIRECTORY",
				Action:    runWatch,
			},
		},
	}
}

// setup loads the configuration and builds the logger every command shares
func setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, cli.Exit(err, 1)
		}
		cfg = loaded
	} else {
		if err := cfg.ApplyEnv(); err != nil {
			return nil, nil, cli.Exit(err, 1)
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, cli.Exit(err, 1)
		}
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}

	// stdout is reserved for protocol traffic and encoded text
	logger := cfg.NewLogger(c.App.ErrWriter)
	logger.Debug("image-text starting", "version", Version, "built", BuildTime, "commit", GitCommit)
	return cfg, logger, nil
}

func runMCP(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	srv := server.New(cfg, logger)
	srv.SetVersion(Version)
	if err := srv.Run(c.App.Reader, c.App.Writer); err != nil {
		return cli.Exit(fmt.Sprintf("server error: %v", err), 1)
	}
	return nil
}

func runServe(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	if port := c.Int("port"); port != 0 {
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err != nil {
			return cli.Exit(err, 1)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpapi.New(cfg.HTTP, convert.New(cfg, logger), logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func runEncode(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
		return nil
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	conv := convert.New(cfg, logger)
	previewPath := c.String("preview")
	if previewPath != "" {
		conv.PreviewFormat = previewFormat(previewPath)
	}

	paths := c.Args().Slice()
	outDir := c.String("out")

	if outDir == "" {
		if len(paths) > 1 {
			return cli.Exit("multiple files need --out", 1)
		}
		res, err := conv.ConvertFile(paths[0])
		if err != nil {
			return cli.Exit(err, 1)
		}
		if previewPath != "" {
			if err := writeDataURL(previewPath, res.ImageURL); err != nil {
				return cli.Exit(err, 1)
			}
		}
		if c.Bool("stats") {
			if err := printStats(c.App.ErrWriter, paths[0], res.Text); err != nil {
				return cli.Exit(err, 1)
			}
		}
		fmt.Fprint(c.App.Writer, res.Text)
		return nil
	}

	if previewPath != "" && len(paths) > 1 {
		return cli.Exit("--preview takes a single FILE", 1)
	}
	if err := checkTextNames(paths); err != nil {
		return cli.Exit(err, 1)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return cli.Exit(fmt.Errorf("unable to create destination folder %q: %w", outDir, err), 1)
	}

	var failed int
	for _, r := range conv.ConvertFiles(c.Context, paths, cfg.Workers) {
		if r.Err != nil {
			failed++
			continue
		}
		out := filepath.Join(outDir, textName(r.Path))
		if err := convert.WriteText(out, r.Result.Text); err != nil {
			logger.Error("could not save text", "file", r.Path, "error", err)
			failed++
			continue
		}
		if previewPath != "" {
			if err := writeDataURL(previewPath, r.Result.ImageURL); err != nil {
				return cli.Exit(err, 1)
			}
		}
		if c.Bool("stats") {
			if err := printStats(c.App.ErrWriter, r.Path, r.Result.Text); err != nil {
				return cli.Exit(err, 1)
			}
		}
	}

	logger.Info("stats", "processed", len(paths)-failed, "errors", failed, "total", len(paths))
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("error processing %d files", failed), 1)
	}
	return nil
}

func runWatch(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
		return nil
	}

	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}

	w, err := watch.New(c.Args().First(), cfg.Watch, convert.New(cfg, logger), logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	if err := w.Start(); err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := w.Stop(); err != nil {
			logger.Error("failed to stop watcher", "error", err)
		}
	}()

	// Results are already logged by the watcher; drain until Stop closes the channel.
	for range w.Events() {
	}
	return nil
}

// textName maps an image file name to the name of its text file
func textName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}

// checkTextNames fails when two inputs would be written to the same text file
func checkTextNames(paths []string) error {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		name := textName(p)
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, p, name)
		}
		seen[name] = p
	}
	return nil
}

func previewFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	}
	return "png"
}

// writeDataURL writes the payload of a base64 data URL to path
func writeDataURL(path, dataURL string) error {
	_, payload, ok := strings.Cut(dataURL, ";base64,")
	if !ok {
		return fmt.Errorf("malformed data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("failed to decode preview: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

func printStats(w io.Writer, path, text string) error {
	stats, err := encoder.Stats(text)
	if err != nil {
		return err
	}
	out := struct {
		File string `json:"file"`
		*encoder.TextStats
	}{path, stats}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
