package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Format values accepted by [New].
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Options configure [New].
type Options struct {
	Format string
	Level  slog.Leveler
	// Output is the console writer; it defaults to os.Stdout.
	Output io.Writer
	// Dir, if set, receives a timestamped log file written at debug level.
	Dir string
	// Now names the log file; it defaults to time.Now.
	Now func() time.Time
}

// Logger is a configured logger and the file it may hold open.
type Logger struct {
	*slog.Logger
	// Path is the log file path, empty when no file is written.
	Path string
	file *os.File
}

// Close closes the log file if one is open; it is safe to call more than once.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// New returns a logger writing to the console at the configured level and, when
// a directory is given, to a file in it at debug level.
func New(opts Options) (*Logger, error) {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	console, err := newHandler(opts.Format, output, level)
	if err != nil {
		return nil, err
	}
	if opts.Dir == "" {
		return &Logger{Logger: slog.New(console)}, nil
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("logging; unable to create log dir: %w", err)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	path := filepath.Join(opts.Dir, fmt.Sprintf("carqueue_%s.log", now().UTC().Format("20060102T150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging; unable to open log file: %w", err)
	}
	file, _ := newHandler(opts.Format, f, slog.LevelDebug)
	return &Logger{
		Logger: slog.New(tee{console, file}),
		Path:   path,
		file:   f,
	}, nil
}

// ParseLevel parses a level name (debug, info, warn, error) into a settable level.
func ParseLevel(text string) (*slog.LevelVar, error) {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(text)); err != nil {
		return nil, fmt.Errorf("logging; invalid log level: %w", err)
	}
	return lvl, nil
}

func newHandler(format string, w io.Writer, level slog.Leveler) (slog.Handler, error) {
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch format {
	case FormatJSON:
		return slog.NewJSONHandler(w, handlerOpts), nil
	case "", FormatText:
		return slog.NewTextHandler(w, handlerOpts), nil
	default:
		return nil, fmt.Errorf("logging; invalid log format: %q", format)
	}
}

// tee fans records out to every handler enabled for their level.
type tee []slog.Handler

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t tee) WithGroup(name string) slog.Handler {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
