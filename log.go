package stagebuf

import (
	"log/slog"
	"sync"
)

var (
	// defaultLogger receives grow and compact events from buffers that have
	// no logger of their own. It discards everything until SetLogger is called.
	defaultLogger = slog.New(slog.DiscardHandler)

	// loggerMu protects defaultLogger.
	loggerMu sync.RWMutex
)

// SetLogger replaces the package-wide logger. Passing nil restores the
// discarding default.
func SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = logger
}

// Logger returns the package-wide logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// SetLogger sets a logger for this buffer only, overriding the package-wide
// one. Passing nil falls back to the package logger. Returns the previous
// buffer logger.
func (b *Buffer) SetLogger(logger *slog.Logger) *slog.Logger {
	old := b.logger
	b.logger = logger
	return old
}

func (b *Buffer) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return Logger()
}
