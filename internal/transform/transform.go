// Package transform runs the full annotation pass over one source buffer:
// a single document-order traversal in which every call-like node is
// classified once and the eligible ones receive the pure marker.
package transform

import (
	"fmt"

	"github.com/standardbeagle/puremark/internal/annotate"
	"github.com/standardbeagle/puremark/internal/debug"
	"github.com/standardbeagle/puremark/internal/parser"
	"github.com/standardbeagle/puremark/internal/purity"
	"github.com/standardbeagle/puremark/internal/rewrite"
)

// Options configures one pass. The denylist is immutable for the duration
// of the pass; concurrent passes with different denylists are independent.
type Options struct {
	Denylist purity.Denylist

	// Verify re-parses rewritten output with go-fAST when the input was
	// parseable by it. ES6-module and TypeScript sources skip verification.
	Verify bool
}

// Stats summarizes the verdicts of one pass.
type Stats struct {
	Sites            int `json:"sites"`
	Annotated        int `json:"annotated"`
	AlreadyAnnotated int `json:"already_annotated"`
	NotTopLevel      int `json:"not_top_level"`
	HasArguments     int `json:"has_arguments"`
	Denylisted       int `json:"denylisted"`
}

// Merge folds another Stats value into the receiver.
func (s *Stats) Merge(other Stats) {
	s.Sites += other.Sites
	s.Annotated += other.Annotated
	s.AlreadyAnnotated += other.AlreadyAnnotated
	s.NotTopLevel += other.NotTopLevel
	s.HasArguments += other.HasArguments
	s.Denylisted += other.Denylisted
}

// SiteReport is the dry-run view of one visited call site.
type SiteReport struct {
	Line    int    `json:"line"`
	Offset  uint   `json:"offset"`
	Kind    string `json:"kind"`
	Callee  string `json:"callee,omitempty"`
	Args    int    `json:"args"`
	Verdict string `json:"verdict"`
	Applied bool   `json:"applied"`
}

// Transformer owns the parser used for traversal. It is cheap to create;
// callers that process files concurrently should use one per goroutine.
type Transformer struct {
	parser *parser.Parser
}

func New() *Transformer {
	return &Transformer{parser: parser.New()}
}

// Supported reports whether the path's extension can be processed.
func (t *Transformer) Supported(path string) bool {
	return t.parser.Supported(path)
}

// Source annotates one source buffer and returns the rewritten bytes. The
// output equals the input byte-for-byte when nothing was annotated, so a
// second run over annotated output is a no-op.
func (t *Transformer) Source(path string, src []byte, opts Options) ([]byte, Stats, error) {
	out, stats, _, err := t.run(path, src, opts)
	return out, stats, err
}

// Inspect runs classification without rewriting and reports every visited
// site in document order.
func (t *Transformer) Inspect(path string, src []byte, opts Options) ([]SiteReport, Stats, error) {
	_, stats, reports, err := t.run(path, src, opts)
	return reports, stats, err
}

func (t *Transformer) run(path string, src []byte, opts Options) ([]byte, Stats, []SiteReport, error) {
	sites, err := t.parser.CollectCallSites(path, src)
	if err != nil {
		return nil, Stats{}, nil, err
	}

	var stats Stats
	var insertions []rewrite.Insertion
	reports := make([]SiteReport, 0, len(sites))

	for i := range sites {
		site := &sites[i]
		stats.Sites++

		verdict := purity.Classify(site.CallSite, site.Context, opts.Denylist)
		outcome := annotate.Annotate(&site.CallSite, verdict)

		switch verdict {
		case purity.NotTopLevel:
			stats.NotTopLevel++
		case purity.HasArguments:
			stats.HasArguments++
		case purity.DenylistedCallee:
			stats.Denylisted++
		case purity.Eligible:
			if outcome == annotate.Applied {
				stats.Annotated++
				insertions = append(insertions, rewrite.Insertion{
					Offset: site.Offset,
					Text:   annotate.Marker,
				})
			} else {
				stats.AlreadyAnnotated++
			}
		}

		reports = append(reports, SiteReport{
			Line:    site.Line,
			Offset:  site.Offset,
			Kind:    site.Kind.String(),
			Callee:  site.Callee,
			Args:    site.ArgCount,
			Verdict: verdict.String(),
			Applied: outcome == annotate.Applied,
		})
	}

	out := rewrite.Apply(src, insertions)

	if opts.Verify && len(insertions) > 0 && rewrite.Parseable(src) {
		if err := rewrite.VerifySyntax(out); err != nil {
			return nil, Stats{}, nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	debug.Logf("transform %s: %d sites, %d annotated", path, stats.Sites, stats.Annotated)
	return out, stats, reports, nil
}
