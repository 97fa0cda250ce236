// Package gruntime holds the small runtime-support helpers shared by the
// engine and scheduler that don't belong on any one exported type — named
// for "goroutine-less runtime", the cooperative fiber execution this module
// runs in place of Go's own scheduler (§4.8).
package gruntime

import (
	"fmt"
	"os"
)

// Logger emits one trace line per call to stderr when enabled, gated by a
// plain bool the same way kristofer-smog's cmd/smog/main.go gates its REPL
// banner and debugger.go gates its interactive prompt output — no
// structured logger, no level filtering (§8.1).
type Logger struct {
	Enabled bool
}

// Tracef writes a formatted trace line if the logger is enabled; a no-op
// otherwise.
func (l Logger) Tracef(format string, args ...any) {
	if !l.Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
