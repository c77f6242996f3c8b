package purity

import (
	"sort"
	"strconv"
	"strings"
)

// defaultHelpers are the tslib interop helpers injected by TypeScript
// down-leveling. Their calls register module bindings, so they must never
// be marked pure even when they take no arguments.
var defaultHelpers = []string{
	"__createBinding",
	"__setModuleDefault",
	"__importStar",
	"__importDefault",
}

// Denylist is an immutable set of callee names excluded from purity
// eligibility. Loaded once, shared across passes; concurrent passes with
// different denylists do not interfere.
type Denylist struct {
	names map[string]struct{}
}

// NewDenylist builds a denylist from the given names only.
func NewDenylist(names ...string) Denylist {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return Denylist{names: set}
}

// DefaultDenylist returns the built-in helper set.
func DefaultDenylist() Denylist {
	return NewDenylist(defaultHelpers...)
}

// Extend returns a new denylist containing the receiver's names plus the
// given additions. The receiver is not modified.
func (d Denylist) Extend(names ...string) Denylist {
	merged := make([]string, 0, len(d.names)+len(names))
	for n := range d.names {
		merged = append(merged, n)
	}
	merged = append(merged, names...)
	return NewDenylist(merged...)
}

// Contains reports whether name matches the denylist. Bundlers deduplicate
// colliding helpers as name$N, so "__importStar$1" matches "__importStar";
// a non-numeric suffix does not.
func (d Denylist) Contains(name string) bool {
	if _, ok := d.names[name]; ok {
		return true
	}
	base, suffix, found := strings.Cut(name, "$")
	if !found {
		return false
	}
	if _, err := strconv.Atoi(suffix); err != nil {
		return false
	}
	_, ok := d.names[base]
	return ok
}

// Names returns the configured names in sorted order.
func (d Denylist) Names() []string {
	out := make([]string, 0, len(d.names))
	for n := range d.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of configured names.
func (d Denylist) Len() int {
	return len(d.names)
}
