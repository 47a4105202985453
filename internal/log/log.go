// Package log holds the process-wide zap logger shared by the command line
// tool, the REST server and the archive store.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.RWMutex
	base *zap.Logger

	// helpers is base with one frame of caller skip for the wrappers below
	helpers *zap.SugaredLogger
)

// Init builds the process logger. Both configurations write to stderr so
// that reports on stdout stay clean; debug adds planner internals such as gas
// switches and section summaries.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("building %s logger: %w", cfg.Encoding, err)
	}
	SetLogger(logger)
	return nil
}

// SetLogger installs l as the process logger
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	helpers = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func current() (*zap.Logger, *zap.SugaredLogger) {
	mu.RLock()
	l, s := base, helpers
	mu.RUnlock()
	if l != nil {
		return l, s
	}

	// nobody called Init, e.g. in package tests
	fallback, err := zap.NewProduction()
	if err != nil {
		fallback = zap.NewNop()
	}
	SetLogger(fallback)
	return current()
}

// GetZapLogger returns the unsugared logger, e.g. for the gorm bridge
func GetZapLogger() *zap.Logger {
	l, _ := current()
	return l
}

// GetSugaredLogger returns a sugared logger reporting its callers' lines
func GetSugaredLogger() *zap.SugaredLogger {
	l, _ := current()
	return l.Sugar()
}

// Named returns a child logger for one component
func Named(component string) *zap.SugaredLogger {
	return GetSugaredLogger().Named(component)
}

// Sync flushes buffered entries; errors from syncing a terminal are ignored
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

func Info(args ...interface{}) {
	_, s := current()
	s.Info(args...)
}

func Infof(template string, args ...interface{}) {
	_, s := current()
	s.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...interface{}) {
	_, s := current()
	s.Infow(msg, keysAndValues...)
}

func Errorf(template string, args ...interface{}) {
	_, s := current()
	s.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	_, s := current()
	s.Errorw(msg, keysAndValues...)
}
