// ABOUTME: Notification collaborator for user-facing messages and logs
// ABOUTME: Wraps charmbracelet/log with severities matching toast variants
package notify

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// Severity of a notification
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}

// Notifier surfaces a message to the user and/or a log.
// Implementations must not call back into the component that notified them.
type Notifier interface {
	Notify(sev Severity, msg string, err error)
}

// LogNotifier writes notifications through a charm logger
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier writing to w at the given minimum severity
func NewLogNotifier(w io.Writer, minimum Severity) *LogNotifier {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "playground",
		ReportTimestamp: true,
		Level:           toLevel(minimum),
	})
	return &LogNotifier{logger: logger}
}

// Logger exposes the underlying logger for structured logging by callers
func (n *LogNotifier) Logger() *log.Logger {
	return n.logger
}

func (n *LogNotifier) Notify(sev Severity, msg string, err error) {
	var keyvals []interface{}
	if err != nil {
		keyvals = append(keyvals, "err", err)
	}
	switch sev {
	case Debug:
		n.logger.Debug(msg, keyvals...)
	case Info:
		n.logger.Info(msg, keyvals...)
	case Warning:
		n.logger.Warn(msg, keyvals...)
	default:
		n.logger.Error(msg, keyvals...)
	}
}

func toLevel(s Severity) log.Level {
	switch s {
	case Debug:
		return log.DebugLevel
	case Info:
		return log.InfoLevel
	case Warning:
		return log.WarnLevel
	}
	return log.ErrorLevel
}

// Discard drops every notification
type Discard struct{}

func (Discard) Notify(Severity, string, error) {}

// Notification is one message captured by a Recorder
type Notification struct {
	Severity Severity
	Message  string
	Err      error
}

// Recorder keeps every notification in memory; used by tests and the MCP server
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(sev Severity, msg string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Severity: sev, Message: msg, Err: err})
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns and clears the recorded notifications
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Multi fans a notification out to several notifiers
type Multi []Notifier

func (m Multi) Notify(sev Severity, msg string, err error) {
	for _, n := range m {
		n.Notify(sev, msg, err)
	}
}
