// Package logging provides structured logging for beacondash on top of zerolog.
//
// Loggers are carried in context.Context so that commands, Bubble Tea commands
// and the Tavern client all log with the same trace id and component fields.
// While the interactive dashboard owns the terminal, logs must go to a file or
// be discarded; NewLoggerWithPath enforces this with a stderr fallback only for
// plain output.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatText    = "text"
)

// Log outputs.
const (
	OutputStderr  = "stderr"
	OutputStdout  = "stdout"
	OutputFile    = "file"
	OutputDiscard = "discard"
)

// Field names shared by every component.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldTraceID   = "trace_id"
	FieldItemID    = "item_id"
	FieldResource  = "resource"
)

const logFilePerm = 0o600

const logDirPerm = 0o750

// Config controls logger construction.
type Config struct {
	Level  string
	Format string
	Output string
	File   string
	Caller bool
}

// LogPathResult describes where NewLoggerWithPath ended up writing.
type LogPathResult struct {
	Logger         zerolog.Logger
	FilePath       string
	UsingFile      bool
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any.
func (r *LogPathResult) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewLogger builds a logger writing to w. A nil w discards output.
func NewLogger(cfg Config, w io.Writer) zerolog.Logger {
	if w == nil {
		return zerolog.Nop()
	}
	if cfg.Format == FormatConsole || cfg.Format == FormatText {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.Format == FormatText}
	}
	ctx := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// NewLoggerWithPath builds a logger for cfg.Output. When the output is a file
// that cannot be opened, the logger falls back to stderr unless
// stderrForbidden is set, in which case logging is discarded.
func NewLoggerWithPath(cfg Config, stderrForbidden bool) LogPathResult {
	switch cfg.Output {
	case OutputDiscard:
		return LogPathResult{Logger: zerolog.Nop()}
	case OutputStdout:
		return LogPathResult{Logger: NewLogger(cfg, os.Stdout)}
	case OutputFile:
		f, err := openLogFile(cfg.File)
		if err == nil {
			return LogPathResult{
				Logger:    NewLogger(cfg, f),
				FilePath:  cfg.File,
				UsingFile: true,
				file:      f,
			}
		}
		res := LogPathResult{FallbackUsed: true, FallbackReason: err.Error()}
		if stderrForbidden {
			res.Logger = zerolog.Nop()
		} else {
			res.Logger = NewLogger(cfg, os.Stderr)
		}
		return res
	default:
		if stderrForbidden {
			return LogPathResult{Logger: zerolog.Nop()}
		}
		return LogPathResult{Logger: NewLogger(cfg, os.Stderr)}
	}
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, ErrNoLogFile
	}
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// ComponentLogger returns l tagged with a component field.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str(FieldComponent, component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger. It
// never returns zerolog's global default so stray calls cannot write to the
// terminal under the dashboard.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		nop := zerolog.Nop()
		return &nop
	}
	l := zerolog.Ctx(ctx)
	if l == zerolog.DefaultContextLogger || l.GetLevel() == zerolog.Disabled {
		nop := zerolog.Nop()
		return &nop
	}
	return l
}

// PrintLogPathMessage tells the user where logs are written.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning reports that file logging could not be set up.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), using stderr\n", reason)
}
