package logging

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger wraps the charmbracelet logger and keeps the rendered output in a
// bounded in-memory ring so handlers can serve recent lines and live streams.
type Logger struct {
	*log.Logger
	ring *Ring
}

// New creates a logger that writes to w and records the last maxLines rendered
// lines in memory.
func New(w io.Writer, debug bool) *Logger {
	ring := NewRing(1000)
	base := log.NewWithOptions(io.MultiWriter(w, ring), log.Options{
		ReportTimestamp: true,
		Prefix:          "transcriber",
	})
	if debug || os.Getenv("DEBUG") == "1" {
		base.SetLevel(log.DebugLevel)
	} else {
		base.SetLevel(log.InfoLevel)
	}
	return &Logger{Logger: base, ring: ring}
}

// NewTest creates a logger suitable for tests. Output is only kept in the ring.
func NewTest() *Logger {
	ring := NewRing(1000)
	base := log.NewWithOptions(ring, log.Options{})
	base.SetLevel(log.DebugLevel)
	return &Logger{Logger: base, ring: ring}
}

// With returns a sub-logger with the given key/value context. The ring is
// shared with the parent.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...), ring: l.ring}
}

// Ring returns the in-memory line buffer backing this logger.
func (l *Logger) Ring() *Ring {
	return l.ring
}

// Ring is a bounded buffer of rendered log lines with subscriber fan-out.
type Ring struct {
	mu    sync.Mutex
	lines []string
	max   int
	subs  map[chan string]struct{}
}

// NewRing creates a ring keeping at most max lines.
func NewRing(max int) *Ring {
	return &Ring{
		lines: make([]string, 0, max),
		max:   max,
		subs:  make(map[chan string]struct{}),
	}
}

// Write implements io.Writer for use as a logger sink.
func (r *Ring) Write(p []byte) (int, error) {
	line := string(p)

	r.mu.Lock()
	r.lines = append(r.lines, line)
	if len(r.lines) > r.max {
		r.lines = r.lines[len(r.lines)-r.max:]
	}
	for ch := range r.subs {
		select {
		case ch <- line:
		default:
			// Slow subscriber, drop the line rather than block logging.
		}
	}
	r.mu.Unlock()

	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Subscribe registers a channel receiving every line written after the call.
// The returned cancel func must be called to release the subscription.
func (r *Ring) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)

	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		delete(r.subs, ch)
		r.mu.Unlock()
	}
	return ch, cancel
}
