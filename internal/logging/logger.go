// Package logging provides leveled logging and run tracing for tie.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StageLogger for structured JSONL stage events (~/.tie/runs.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. The engine logs each run's
// instruction mix at this level.
const LevelTrace = slog.LevelDebug - 4

// RunsFile is the name of the stage event log inside the tie directory.
const RunsFile = "runs.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w. When jsonOutput is
// set the handler emits JSON records, otherwise logfmt-style text.
func NewLogger(level string, w io.Writer, jsonOutput bool) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// StageEvent is one line of the run log.
type StageEvent struct {
	Time       time.Time `json:"time"`
	RunID      string    `json:"run_id"`
	Stage      string    `json:"stage"`
	DurationMs float64   `json:"duration_ms"`
	Items      int       `json:"items"`
	Error      string    `json:"error,omitempty"`
}

// StageLogger appends stage events to a JSONL file. It is safe for
// concurrent use. A nil StageLogger is safe to use; all methods are no-ops on
// a nil receiver.
type StageLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewStageLogger opens dir/runs.jsonl for append. At "info" level (the
// default) it returns nil and nothing is created. Returns nil if the file
// cannot be opened.
func NewStageLogger(dir string, level string) *StageLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, RunsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &StageLogger{file: f, now: time.Now}
}

// Log writes ev as a single JSONL line, stamping Time when unset.
func (sl *StageLogger) Log(ev StageEvent) {
	if sl == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.file == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = sl.now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = sl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (sl *StageLogger) Close() {
	if sl == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.file != nil {
		sl.file.Close()
		sl.file = nil
	}
}
