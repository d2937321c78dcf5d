package vend

import "log/slog"

// LevelTrace is below Debug and logs every frame written to the bus
const LevelTrace = slog.LevelDebug - 4

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
