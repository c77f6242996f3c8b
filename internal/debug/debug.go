// Package debug provides opt-in diagnostic logging. Output is disabled by
// default so the annotate and mcp commands keep stdout/stderr clean for
// their own protocols.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// EnableDebug can be overridden at build time:
// go build -ldflags "-X github.com/standardbeagle/puremark/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr
)

// SetOutput redirects diagnostic output. Pass nil to discard it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether diagnostic logging is active, either via the
// build flag or the PUREMARK_DEBUG environment variable.
func Enabled() bool {
	return EnableDebug == "true" || os.Getenv("PUREMARK_DEBUG") != ""
}

// Logf writes one timestamped diagnostic line when debugging is enabled.
func Logf(format string, args ...any) {
	if !Enabled() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(output, "[puremark %s] %s\n", timestamp, fmt.Sprintf(format, args...))
}
