package sheets

import (
	"context"
	"log/slog"
)

// Notifier receives user-facing messages about failed writes, the
// equivalent of a transient toast in the dashboard.
type Notifier interface {
	Notify(level slog.Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level slog.Level, message string)

func (f NotifierFunc) Notify(level slog.Level, message string) { f(level, message) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(level slog.Level, message string) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), level, message)
}
