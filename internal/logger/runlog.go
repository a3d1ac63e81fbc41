package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RunLogTimeFormat is the timestamp layout used both inside run log lines
// and for the run log file name.
const RunLogTimeFormat = "2006.01.02-15.04.05"

// RunLog is the append-only text log written once per application run.
// Lines have the form "[<timestamp>] [INFO] <message>", with [ERROR] for
// errors and any component fields appended as key=value.
//
// RunLog implements Logger for component logging and the plain
// LogInfo/LogError sink consumed by the event registry.
type RunLog struct {
	*ZerologAdapter

	mu     sync.Mutex
	file   *os.File
	path   string
	closed bool
}

// RunLogOption configures OpenRunLog.
type RunLogOption func(*runLogOptions)

type runLogOptions struct {
	console io.Writer
	level   zerolog.Level
	now     func() time.Time
}

// WithConsole mirrors every line to w with colors enabled.
func WithConsole(w io.Writer) RunLogOption {
	return func(o *runLogOptions) {
		o.console = w
	}
}

// WithLevel sets the minimum level written to the run log.
func WithLevel(level zerolog.Level) RunLogOption {
	return func(o *runLogOptions) {
		o.level = level
	}
}

// WithFileClock overrides the clock used to name the run log file.
func WithFileClock(now func() time.Time) RunLogOption {
	return func(o *runLogOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// OpenRunLog creates dir when missing and opens "<dir>/<timestamp>.log" for
// appending. The returned bool reports whether the directory was created.
func OpenRunLog(dir string, opts ...RunLogOption) (*RunLog, bool, error) {
	o := runLogOptions{level: zerolog.InfoLevel, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	created := false
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating log directory %s: %w", dir, err)
		}
		created = true
	} else if err != nil {
		return nil, false, fmt.Errorf("checking log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, o.now().Format(RunLogTimeFormat)+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, created, fmt.Errorf("opening run log %s: %w", path, err)
	}

	var out io.Writer = NewRunLogWriter(file, true)
	if o.console != nil {
		out = zerolog.MultiLevelWriter(out, NewRunLogWriter(o.console, false))
	}

	return &RunLog{
		ZerologAdapter: NewZerolog(out, o.level),
		file:           file,
		path:           path,
	}, created, nil
}

// NewRunLog builds a RunLog over an arbitrary writer. Close is a no-op for
// run logs built this way.
func NewRunLog(w io.Writer, level zerolog.Level) *RunLog {
	return &RunLog{ZerologAdapter: NewZerolog(NewRunLogWriter(w, true), level)}
}

// NewRunLogWriter returns a zerolog.ConsoleWriter producing run log lines.
func NewRunLogWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:             w,
		NoColor:         noColor,
		FormatTimestamp: formatRunLogTimestamp,
		FormatLevel:     formatRunLogLevel,
	}
}

func formatRunLogTimestamp(i interface{}) string {
	raw, ok := i.(string)
	if !ok {
		return ""
	}
	ts, err := time.Parse(zerolog.TimeFieldFormat, raw)
	if err != nil {
		return "[" + raw + "]"
	}
	return "[" + ts.Local().Format(RunLogTimeFormat) + "]"
}

// formatRunLogLevel folds zerolog levels into the two run log tags: error
// and above print [ERROR], everything else [INFO].
func formatRunLogLevel(i interface{}) string {
	level, _ := i.(string)
	switch level {
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "[ERROR]"
	}
	return "[INFO]"
}

// LogInfo writes an info line without a component tag.
func (r *RunLog) LogInfo(message string) {
	r.logger.Info().Msg(message)
}

// LogError writes an error line without a component tag.
func (r *RunLog) LogError(message string) {
	r.logger.Error().Msg(message)
}

// Path returns the run log file path, empty for writer-backed logs.
func (r *RunLog) Path() string {
	return r.path
}

// Close flushes and closes the underlying file. Safe to call twice.
func (r *RunLog) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.file == nil {
		r.closed = true
		return nil
	}
	r.closed = true
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Shutdown lets the run log take part in an ordered shutdown.
func (r *RunLog) Shutdown() {
	r.Close()
}
