package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Options configures a zerolog-backed Logger.
type Options struct {
	Level      string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     Format `json:"format" yaml:"format" validate:"omitempty,oneof=json console"`
	FilePath   string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" validate:"omitempty,min=1"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" validate:"omitempty,min=0"`
	NoConsole  bool   `json:"no_console,omitempty" yaml:"no_console,omitempty"`
}

// DefaultOptions logs info and above to stderr in console format.
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     FormatConsole,
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// ZerologLogger adapts zerolog to the Logger interface.
type ZerologLogger struct {
	base      zerolog.Logger // without component or persistent fields
	component string
	fields    []Field
	zl        zerolog.Logger
	closer    io.Closer
}

func newZerolog(base zerolog.Logger, component string, fields []Field, closer io.Closer) *ZerologLogger {
	ctx := base.With()
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, fieldValue(f.Value))
	}
	return &ZerologLogger{base: base, component: component, fields: fields, zl: ctx.Logger(), closer: closer}
}

// NewZerologLogger builds a logger writing to stderr and, when FilePath is set,
// to a size-rotated file.
func NewZerologLogger(component string, opts Options) (*ZerologLogger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var writers []io.Writer
	if !opts.NoConsole {
		writers = append(writers, consoleWriter(os.Stderr, opts.Format, false))
	}

	var closer io.Closer
	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		lj := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
		}
		closer = lj
		writers = append(writers, consoleWriter(lj, opts.Format, true))
	}

	if len(writers) == 0 {
		return nil, fmt.Errorf("logging: no output writers configured")
	}

	base := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return newZerolog(base, component, nil, closer), nil
}

// NewZerologFrom wraps an existing zerolog.Logger, mostly for tests writing into a buffer.
func NewZerologFrom(zl zerolog.Logger) *ZerologLogger {
	return newZerolog(zl, "", nil, nil)
}

func consoleWriter(out io.Writer, format Format, noColor bool) io.Writer {
	if format == FormatJSON {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
}

func parseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("logging: invalid level %q: %w", s, err)
	}
	return level, nil
}

func (z *ZerologLogger) Debug(msg string, fields ...Field) {
	withFields(z.zl.Debug(), fields).Msg(msg)
}

func (z *ZerologLogger) Info(msg string, fields ...Field) {
	withFields(z.zl.Info(), fields).Msg(msg)
}

func (z *ZerologLogger) Warn(msg string, fields ...Field) {
	withFields(z.zl.Warn(), fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields ...Field) {
	withFields(z.zl.Error(), fields).Msg(msg)
}

// With returns a child logger. A "component" field replaces the component and
// a key already present replaces its value, so no key is written twice.
func (z *ZerologLogger) With(fields ...Field) Logger {
	component := z.component
	merged := append([]Field(nil), z.fields...)
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				component = str
				continue
			}
		}
		replaced := false
		for i := range merged {
			if merged[i].Key == f.Key {
				merged[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, f)
		}
	}
	return newZerolog(z.base, component, merged, z.closer)
}

// Close flushes and closes the rotating file, if any.
func (z *ZerologLogger) Close() error {
	if z.closer == nil {
		return nil
	}
	return z.closer.Close()
}

func withFields(ev *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			ev = ev.AnErr(f.Key, err)
			continue
		}
		ev = ev.Interface(f.Key, f.Value)
	}
	return ev
}
