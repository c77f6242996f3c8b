// Package annotate attaches the pure marker comment to eligible call sites.
package annotate

import (
	"strings"

	"github.com/standardbeagle/puremark/internal/purity"
)

// Marker is the annotation recognized by downstream minifiers. It is a
// structural protocol token, not free text: the bytes must match exactly,
// with no surrounding whitespace.
const Marker = "/*#__PURE__*/"

// markerAlt is the older @-form some emitters produce. It counts as an
// existing annotation but is never written by this tool.
const markerAlt = "@__PURE__"

// Outcome reports whether an annotation was attached.
type Outcome uint8

const (
	Skipped Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "skipped"
}

// Annotate attaches the marker to the site when the verdict permits it.
// A site that already carries a pure annotation is left alone, so running
// the pass twice yields the same tree as running it once.
func Annotate(site *purity.CallSite, verdict purity.Verdict) Outcome {
	if verdict != purity.Eligible {
		return Skipped
	}
	if HasMarker(site.LeadingComments) {
		return Skipped
	}
	site.LeadingComments = append(site.LeadingComments, Marker)
	return Applied
}

// HasMarker reports whether any of the comments is a pure annotation, in
// either the block or the @-form.
func HasMarker(comments []string) bool {
	for _, c := range comments {
		if strings.Contains(c, Marker) || strings.Contains(c, markerAlt) {
			return true
		}
	}
	return false
}
