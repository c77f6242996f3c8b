// Package puremark is the public entry point for annotating source text in
// process, without going through the CLI or MCP surfaces.
package puremark

import (
	"github.com/standardbeagle/puremark/internal/purity"
	"github.com/standardbeagle/puremark/internal/transform"
)

// Marker is the annotation prepended to eligible calls.
const Marker = "/*#__PURE__*/"

// Stats summarizes the verdicts of one transform.
type Stats = transform.Stats

// Options configures a transform. The zero value uses the built-in interop
// helper denylist and no verification.
type Options struct {
	// ExtraDenylist adds callee names to the denylist.
	ExtraDenylist []string

	// NoDefaultDenylist drops the built-in tslib helper names.
	NoDefaultDenylist bool

	// Verify re-parses the rewritten output as a syntax check where the
	// input grammar allows it.
	Verify bool
}

// Transform annotates eligible top-level calls and constructor invocations
// in source. The filename's extension selects the grammar (.js, .jsx, .mjs,
// .cjs, .ts, .tsx). Already annotated input comes back byte-identical.
func Transform(filename string, source []byte, opts Options) ([]byte, Stats, error) {
	denylist := purity.DefaultDenylist()
	if opts.NoDefaultDenylist {
		denylist = purity.NewDenylist()
	}
	if len(opts.ExtraDenylist) > 0 {
		denylist = denylist.Extend(opts.ExtraDenylist...)
	}

	return transform.New().Source(filename, source, transform.Options{
		Denylist: denylist,
		Verify:   opts.Verify,
	})
}
