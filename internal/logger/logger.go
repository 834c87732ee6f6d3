// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.Mutex
	sugar *zap.SugaredLogger
)

// Init initializes the global logger for the given environment.
// "production" uses a JSON encoder, "test" discards output, and every
// other value uses a human-readable console encoder. Later calls replace
// the logger so the CLI can apply the loaded config.
func Init(env string) {
	var base *zap.Logger
	var err error

	switch env {
	case "production":
		base, err = zap.NewProduction()
	case "test", "nop":
		base = zap.NewNop()
	default:
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		base = zap.NewNop()
	}

	mu.Lock()
	sugar = base.Sugar()
	mu.Unlock()
}

// Get returns the global sugared logger.
// If Init has not been called, it returns a no-op logger.
func Get() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return sugar
}

// Named returns the global logger scoped to a component.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	mu.Lock()
	s := sugar
	mu.Unlock()
	if s != nil {
		_ = s.Sync()
	}
}
