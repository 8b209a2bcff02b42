package debug

import (
	"fmt"
	"log"
	"os"
)

// Logger is the narrow logging interface the emitter uses for its one
// documented non-fatal condition, UnresolvedType. No third-party logging library appears
// anywhere in the example corpus this module was grounded on, so this
// mirrors that: a minimal interface plus a stdlib-backed default, not an
// adopted framework.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// stderrLogger is the default Logger, writing to stderr via the standard
// library's log package.
type stderrLogger struct {
	l *log.Logger
}

// NewStderrLogger returns the default Logger implementation.
func NewStderrLogger() Logger {
	return &stderrLogger{l: log.New(os.Stderr, "orizon-dwarf: ", log.LstdFlags)}
}

func (s *stderrLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("WARN "+format, args...)
}

// discardLogger silences all output; useful for tests that deliberately
// exercise the UnresolvedType fallback path.
type discardLogger struct{}

func (discardLogger) Warnf(format string, args ...interface{}) { _ = fmt.Sprintf(format, args...) }
