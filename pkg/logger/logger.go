package logger

import (
	"log/slog"
	"os"
)

// Logger emits structured JSON log entries tagged with the service name,
// hostname and the current action. It is a small value wrapper, so derived
// loggers (Action, With, WithGroup) can be passed around freely.
type Logger struct {
	sl *slog.Logger
}

func New(service string) Logger {
	hostname, _ := os.Hostname()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	sl := slog.New(handler).With(
		"service", service,
		"hostname", hostname,
	)
	return Logger{sl: sl}
}

// Action returns a logger whose entries carry the given action tag.
func (l Logger) Action(action string) Logger {
	return Logger{sl: l.sl.With("action", action)}
}

func (l Logger) With(args ...any) Logger {
	return Logger{sl: l.sl.With(args...)}
}

func (l Logger) WithGroup(name string) Logger {
	return Logger{sl: l.sl.WithGroup(name)}
}

func (l Logger) Debug(msg string) {
	l.sl.Debug(msg)
}

func (l Logger) Info(msg string) {
	l.sl.Info(msg)
}

func (l Logger) Warn(msg string) {
	l.sl.Warn(msg)
}

func (l Logger) Error(msg string, err error) {
	if err != nil {
		l.sl.Error(msg, "error", err.Error())
		return
	}
	l.sl.Error(msg)
}
