package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dpotapov/slogpfx"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// NamespaceKey names the attribute that identifies the emitting component.
const NamespaceKey = "namespace"

// NewLogger builds a logger writing to w according to params.
func NewLogger(w io.Writer, params Parameters) *slog.Logger {
	return slog.New(NewHandler(w, params.Type, params.Level))
}

// NewHandler creates a new slog handler based on the specified logger type and level.
func NewHandler(w io.Writer, loggerType LoggerType, level slog.Level) slog.Handler {
	switch loggerType {
	case LoggerText:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case LoggerJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case LoggerPretty:
		type fd interface{ Fd() uintptr }
		colorize := false
		if f, ok := w.(fd); ok {
			colorize = isatty.IsTerminal(f.Fd())
		}
		return buildPrettyHandler(w, level, colorize)
	case LoggerPrettyNoColor:
		return buildPrettyHandler(w, level, false)
	default:
		panic(fmt.Sprintf("unsupported logger type %d", loggerType))
	}
}

// buildPrettyHandler renders records with tint and moves the namespace attribute
// into a prefix of the message.
func buildPrettyHandler(w io.Writer, level slog.Level, colorize bool) slog.Handler {
	tintHandler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !colorize,
	})
	formatter := slogpfx.DefaultPrefixFormatter
	if colorize {
		formatter = slogpfx.ColorizePrefix(formatter)
	}
	return slogpfx.NewHandler(tintHandler, &slogpfx.HandlerOptions{
		PrefixKeys:      []string{NamespaceKey},
		PrefixFormatter: formatter,
	})
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Namespace returns the attribute used to tag records with a component name.
func Namespace(name string) slog.Attr {
	return slog.String(NamespaceKey, name)
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type errorLogValuer struct {
	err error
}

func (e errorLogValuer) LogValue() slog.Value {
	if e.err == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{slog.String("message", e.err.Error())}
	if st, ok := e.err.(stackTracer); ok {
		attrs = append(attrs, slog.String("trace", fmt.Sprintf("%+v", st.StackTrace())))
	}
	return slog.GroupValue(attrs...)
}

const errorKey = "error"

// Error returns an attribute describing err. Errors created with github.com/pkg/errors
// carry their stack trace as a nested "trace" attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(errorKey, errorLogValuer{err: err})
}
