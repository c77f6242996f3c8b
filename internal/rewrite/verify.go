package rewrite

import (
	"fmt"

	fastparser "github.com/t14raptor/go-fast/parser"
)

// Parseable reports whether go-fAST can parse the source. go-fAST does not
// support ES6 modules or TypeScript, so verification is only meaningful for
// sources that parsed before the rewrite.
func Parseable(src []byte) bool {
	_, err := fastparser.ParseFile(string(src))
	return err == nil
}

// VerifySyntax re-parses rewritten output and reports any syntax damage.
// Marker comments are transparent to the parser, so a clean input that
// fails here indicates a mis-placed insertion.
func VerifySyntax(src []byte) error {
	if _, err := fastparser.ParseFile(string(src)); err != nil {
		return fmt.Errorf("rewritten output no longer parses: %w", err)
	}
	return nil
}
