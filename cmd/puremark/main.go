package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/puremark/internal/config"
	"github.com/standardbeagle/puremark/internal/debug"
	"github.com/standardbeagle/puremark/internal/mcp"
	"github.com/standardbeagle/puremark/internal/pipeline"
	"github.com/standardbeagle/puremark/internal/rewrite"
	"github.com/standardbeagle/puremark/internal/transform"
	"github.com/standardbeagle/puremark/internal/version"
	"github.com/standardbeagle/puremark/internal/watcher"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath := c.String("config"); configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		root := c.String("root")
		if root == "" {
			root = "."
		}
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}

	if rootFlag := c.String("root"); rootFlag != "" {
		absRoot, err := filepath.Abs(rootFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", rootFlag, err)
		}
		cfg.Project.Root = absRoot
	}
	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludeFlags...)
	}
	if denyFlags := c.StringSlice("denylist"); len(denyFlags) > 0 {
		cfg.Denylist.Extend = append(cfg.Denylist.Extend, denyFlags...)
	}
	if c.Bool("no-default-denylist") {
		cfg.Denylist.UseDefaults = false
	}
	if jobs := c.Int("jobs"); jobs > 0 {
		cfg.Workers = jobs
	}
	if c.Bool("verify") {
		cfg.Verify = true
	}

	return cfg, nil
}

func transformOptions(cfg *config.Config) transform.Options {
	return transform.Options{Denylist: cfg.Denylist.Resolve(), Verify: cfg.Verify}
}

func main() {
	app := &cli.App{
		Name:                   "puremark",
		Usage:                  "Annotate side-effect-free calls with /*#__PURE__*/ markers for minifier dead code elimination",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.puremark.kdl or .puremark.toml)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include 'src/**/*.js')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.StringSliceFlag{
				Name:  "denylist",
				Usage: "Extra callee names to treat as side-effecting helpers",
			},
			&cli.BoolFlag{
				Name:  "no-default-denylist",
				Usage: "Drop the built-in TypeScript interop helper denylist",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of parallel workers (default: CPU count)",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Re-parse rewritten files as a syntax check",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "annotate",
				Aliases:   []string{"a"},
				Usage:     "Annotate files in place; pass file paths, or '-' for stdin to stdout, or nothing for the whole project",
				ArgsUsage: "[file ...|-]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run summary as JSON",
					},
					&cli.StringFlag{
						Name:  "stdin-name",
						Usage: "File name used to pick the grammar for stdin input",
						Value: "stdin.js",
					},
				},
				Action: annotateCommand,
			},
			{
				Name:    "check",
				Usage:   "Report files that would change without rewriting; exits 1 when annotations are missing",
				Aliases: []string{"k"},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run summary as JSON",
					},
				},
				Action: checkCommand,
			},
			{
				Name:   "watch",
				Usage:  "Annotate the project, then keep re-annotating files as they change",
				Action: watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve annotation tools over the Model Context Protocol on stdio",
				Action: mcpCommand,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return annotateCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func annotateCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	opts := transformOptions(cfg)

	if c.NArg() == 1 && c.Args().First() == "-" {
		return annotateStdin(c, opts)
	}
	if c.NArg() > 0 {
		return annotateFiles(c, c.Args().Slice(), opts)
	}

	summary, results, err := pipeline.NewRunner(cfg, opts, pipeline.ModeAnnotate).Run(c.Context)
	if err != nil {
		return err
	}
	return printRun(c, summary, results, "annotated")
}

// annotateStdin reads one source from stdin and writes the annotated form
// to stdout. Build tool friendly: the exit status reflects parse failures
// only, never whether markers were added.
func annotateStdin(c *cli.Context, opts transform.Options) error {
	src, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	name := c.String("stdin-name")
	if name == "" {
		name = "stdin.js"
	}
	out, stats, err := transform.New().Source(name, src, opts)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return err
	}
	debug.Logf("stdin: %d sites, %d annotated", stats.Sites, stats.Annotated)
	return nil
}

func annotateFiles(c *cli.Context, paths []string, opts transform.Options) error {
	tr := transform.New()
	var summary pipeline.Summary
	results := make([]pipeline.FileResult, 0, len(paths))

	for _, path := range paths {
		summary.Scanned++
		res := annotateOneFile(tr, path, opts)
		if res.Err != nil {
			summary.Failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, res.Err)
		} else {
			if res.Changed {
				summary.Changed++
			}
			summary.Stats.Merge(res.Stats)
		}
		results = append(results, res)
	}

	if err := printRun(c, summary, results, "annotated"); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Scanned)
	}
	return nil
}

func annotateOneFile(tr *transform.Transformer, path string, opts transform.Options) pipeline.FileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return pipeline.FileResult{Path: path, Err: err}
	}

	out, stats, err := tr.Source(path, src, opts)
	if err != nil {
		return pipeline.FileResult{Path: path, Err: err}
	}

	changed := rewrite.Changed(src, out)
	if changed {
		mode := os.FileMode(0644)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(path, out, mode); err != nil {
			return pipeline.FileResult{Path: path, Err: err}
		}
	}
	return pipeline.FileResult{Path: path, Changed: changed, Stats: stats}
}

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	summary, results, err := pipeline.NewRunner(cfg, transformOptions(cfg), pipeline.ModeCheck).Run(c.Context)
	if err != nil {
		return err
	}
	if err := printRun(c, summary, results, "missing annotations"); err != nil {
		return err
	}
	if summary.Changed > 0 {
		return cli.Exit(fmt.Sprintf("%d files are missing annotations", summary.Changed), 1)
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}
	opts := transformOptions(cfg)

	// Bring the tree up to date before watching.
	summary, results, err := pipeline.NewRunner(cfg, opts, pipeline.ModeAnnotate).Run(c.Context)
	if err != nil {
		return err
	}
	if err := printRun(c, summary, results, "annotated"); err != nil {
		return err
	}

	w, err := watcher.New(cfg, opts)
	if err != nil {
		return err
	}
	w.SetCallbacks(
		func(path string, stats transform.Stats) {
			fmt.Printf("annotated %s (%d markers)\n", path, stats.Annotated)
		},
		func(path string, err error) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		},
	)
	if err := w.Start(); err != nil {
		return err
	}

	fmt.Printf("watching %s\n", cfg.Project.Root)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		fmt.Printf("received %v, shutting down\n", sig)
	case <-c.Context.Done():
	}

	return w.Stop()
}

func mcpCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- mcp.NewServer(cfg).Run(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		debug.Logf("received signal %v, shutting down", sig)
		cancel()
		return <-errChan
	}
}

// printRun writes the run outcome, as JSON with --json or one summary line
// plus the changed file list otherwise.
func printRun(c *cli.Context, summary pipeline.Summary, results []pipeline.FileResult, changedLabel string) error {
	if c.Bool("json") {
		payload := map[string]interface{}{
			"summary": summary,
			"files":   results,
		}
		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}

	for _, res := range results {
		if res.Changed {
			fmt.Printf("  %s (%d markers)\n", res.Path, res.Stats.Annotated)
		}
	}
	fmt.Printf("%d files scanned, %d %s, %d failed\n", summary.Scanned, summary.Changed, changedLabel, summary.Failed)
	return nil
}
