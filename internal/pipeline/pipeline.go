// Package pipeline runs the annotation pass over a whole project tree:
// scan, then a bounded worker pool that reads, transforms and writes each
// file independently.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/puremark/internal/config"
	"github.com/standardbeagle/puremark/internal/debug"
	"github.com/standardbeagle/puremark/internal/rewrite"
	"github.com/standardbeagle/puremark/internal/transform"
)

// Mode selects whether the pipeline writes results back.
type Mode int

const (
	// ModeAnnotate rewrites files in place when annotations were added.
	ModeAnnotate Mode = iota
	// ModeCheck classifies only and reports files that would change.
	ModeCheck
)

// FileResult is the outcome for one processed file.
type FileResult struct {
	Path    string          `json:"path"`
	Changed bool            `json:"changed"`
	Stats   transform.Stats `json:"stats"`
	Err     error           `json:"-"`
}

// Summary aggregates results across the whole run.
type Summary struct {
	Scanned int             `json:"scanned"`
	Changed int             `json:"changed"`
	Failed  int             `json:"failed"`
	Stats   transform.Stats `json:"stats"`
}

// Runner executes one pass over the project described by cfg.
type Runner struct {
	cfg  *config.Config
	opts transform.Options
	mode Mode
}

func NewRunner(cfg *config.Config, opts transform.Options, mode Mode) *Runner {
	return &Runner{cfg: cfg, opts: opts, mode: mode}
}

// Run scans the project root and processes every matched file. Per-file
// failures are recorded in the results rather than aborting the run; the
// returned error covers scan failures and context cancellation only.
func (r *Runner) Run(ctx context.Context) (Summary, []FileResult, error) {
	files, err := NewScanner(r.cfg).Scan()
	if err != nil {
		return Summary{}, nil, fmt.Errorf("scan %s: %w", r.cfg.Project.Root, err)
	}

	workers := r.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	debug.Logf("pipeline: %d files, %d workers", len(files), workers)

	var mu sync.Mutex
	results := make([]FileResult, 0, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rel := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			// Transformers hold CGO parser state, one per task.
			res := r.processFile(transform.New(), rel)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	summary := Summary{Scanned: len(files)}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
			continue
		}
		if res.Changed {
			summary.Changed++
		}
		summary.Stats.Merge(res.Stats)
	}
	return summary, results, nil
}

func (r *Runner) processFile(tr *transform.Transformer, rel string) FileResult {
	abs := filepath.Join(r.cfg.Project.Root, rel)

	src, err := os.ReadFile(abs)
	if err != nil {
		return FileResult{Path: rel, Err: fmt.Errorf("read: %w", err)}
	}

	out, stats, err := tr.Source(rel, src, r.opts)
	if err != nil {
		return FileResult{Path: rel, Err: err}
	}

	changed := rewrite.Changed(src, out)
	if changed && r.mode == ModeAnnotate {
		mode := os.FileMode(0644)
		if info, err := os.Stat(abs); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(abs, out, mode); err != nil {
			return FileResult{Path: rel, Err: fmt.Errorf("write: %w", err)}
		}
	}

	return FileResult{Path: rel, Changed: changed, Stats: stats}
}
