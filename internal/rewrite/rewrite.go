// Package rewrite applies marker insertions to source text. Insertion is the
// only mutation: no reordering, no re-parenting, no whitespace changes beyond
// the inserted bytes themselves.
package rewrite

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Insertion is one pending text edit: Text spliced in immediately before
// Offset in the original source.
type Insertion struct {
	Offset uint
	Text   string
}

// Apply returns a new buffer with every insertion applied. Offsets refer to
// the original source, so insertions are applied in ascending offset order
// while copying; equal offsets keep their given order.
func Apply(src []byte, insertions []Insertion) []byte {
	if len(insertions) == 0 {
		return src
	}

	sorted := make([]Insertion, len(insertions))
	copy(sorted, insertions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	extra := 0
	for _, ins := range sorted {
		extra += len(ins.Text)
	}

	out := make([]byte, 0, len(src)+extra)
	prev := uint(0)
	for _, ins := range sorted {
		offset := ins.Offset
		if offset > uint(len(src)) {
			offset = uint(len(src))
		}
		out = append(out, src[prev:offset]...)
		out = append(out, ins.Text...)
		prev = offset
	}
	out = append(out, src[prev:]...)
	return out
}

// Changed reports whether two buffers differ, comparing lengths first and
// xxhash digests second. A second annotation run over already-annotated
// output produces an unchanged buffer, which lets callers skip the write
// entirely.
func Changed(before, after []byte) bool {
	if len(before) != len(after) {
		return true
	}
	return xxhash.Sum64(before) != xxhash.Sum64(after)
}
