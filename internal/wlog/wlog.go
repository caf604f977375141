// Package wlog provides the compositor's ambient logging.
//
// It is deliberately thin: a prefixed wrapper around the standard
// library logger, matching the terse log.Fatalf/fmt.Errorf style the
// rest of the corpus uses for low-level systems code rather than a
// structured logging library.
package wlog

import (
	"log"
	"os"
)

// Logger writes prefixed lines for one compositor subsystem.
type Logger struct {
	*log.Logger
	subsystem string
}

// New returns a Logger for the given subsystem, writing to stderr.
func New(subsystem string) *Logger {
	return &Logger{
		Logger:    log.New(os.Stderr, subsystem+": ", log.LstdFlags|log.Lmicroseconds),
		subsystem: subsystem,
	}
}

// Sub returns a child logger for a nested subsystem, e.g. "client" -> "client.42".
func (l *Logger) Sub(name string) *Logger {
	return New(l.subsystem + "." + name)
}

var (
	Loop       = New("loop")
	Async      = New("async")
	Transport  = New("transport")
	Registry   = New("registry")
	Client     = New("client")
	Surface    = New("surface")
	Scene      = New("scene")
	Seat       = New("seat")
	Output     = New("output")
	Compositor = New("compositor")
	CPUWorker  = New("cpuworker")
)
