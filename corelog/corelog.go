// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package corelog provides the structured logger used across dispatch,
// ignite, and the fairing pipeline: a slog-backed Logger with service
// metadata, sampling, and a Recorder interface so callers depend on an
// abstraction rather than a concrete handler implementation.
package corelog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerType selects the slog.Handler backend a Logger writes through.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
)

// Level is an alias of slog.Level so callers need not import log/slog
// directly for the common case.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Recorder is the logging interface *Logger satisfies, grounded on
// logging/router.go's Recorder. dispatch, ignite, and recovery take a
// plain *slog.Logger rather than a Recorder; Logger() supplies one.
type Recorder interface {
	Logger() *slog.Logger
	With(args ...any) *slog.Logger
	WithGroup(name string) *slog.Logger
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var bgCtx = context.Background()

// SamplingConfig thins log volume in high-traffic scenarios: the first
// Initial entries are always logged, then 1 in every Thereafter, with
// the counter reset every Tick.
type SamplingConfig struct {
	Initial    int
	Thereafter int
	Tick       time.Duration
}

// Logger is the module's structured logger, adapted from
// logging/logger.go's Logger: same atomic-pointer handler swap and
// sampling machinery, trimmed of its ErrorWithStack/LogRequest/
// LogDuration convenience wrappers, which nothing in this module
// calls; corelog's callers reach for the Recorder methods directly.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       Level

	serviceName    string
	serviceVersion string
	environment    string

	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr

	samplingConfig *SamplingConfig
	sampleCounter  atomic.Int64
	sampleTicker   *time.Ticker
	sampleStop     chan struct{}

	customLogger *slog.Logger
	useCustom    bool

	slogger        atomic.Pointer[slog.Logger]
	mu             sync.Mutex
	isShuttingDown atomic.Bool

	registerGlobal bool
}

// Option is a functional option for configuring a Logger.
type Option func(*Logger)

func defaultLogger() *Logger {
	return &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
		level:       LevelInfo,
	}
}

// New builds a Logger from opts. By default the global slog logger is
// left untouched; use WithGlobalLogger to register this Logger as the
// process default.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	for _, opt := range opts {
		opt(l)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("corelog: invalid configuration: %w", err)
	}
	if err := l.initialize(); err != nil {
		return nil, err
	}
	return l, nil
}

// MustNew builds a Logger or panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("corelog: initialization failed: " + err.Error())
	}
	return l
}

// Validate reports whether the configuration is internally consistent.
func (l *Logger) Validate() error {
	if l.output == nil {
		return errors.New("corelog: output writer cannot be nil")
	}
	if l.useCustom && l.customLogger == nil {
		return ErrNilLogger
	}
	if l.samplingConfig != nil {
		if l.samplingConfig.Initial < 0 || l.samplingConfig.Thereafter < 0 {
			return errors.New("corelog: sampling config values must be non-negative")
		}
	}
	return nil
}

func (l *Logger) initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.initializeHandler(); err != nil {
		return err
	}

	if l.samplingConfig != nil && l.samplingConfig.Tick > 0 {
		l.sampleStop = make(chan struct{})
		l.sampleTicker = time.NewTicker(l.samplingConfig.Tick)
		go l.samplingResetter()
	}
	return nil
}

func (l *Logger) samplingResetter() {
	for {
		select {
		case <-l.sampleTicker.C:
			l.sampleCounter.Store(0)
		case <-l.sampleStop:
			return
		}
	}
}

func (l *Logger) shouldSample(level slog.Level) bool {
	if level >= slog.LevelError {
		return true
	}
	if l.samplingConfig == nil {
		return true
	}
	count := l.sampleCounter.Add(1)
	if count <= int64(l.samplingConfig.Initial) {
		return true
	}
	if l.samplingConfig.Thereafter == 0 {
		return true
	}
	return (count-int64(l.samplingConfig.Initial))%int64(l.samplingConfig.Thereafter) == 0
}

func (l *Logger) initializeHandler() error {
	if l.useCustom {
		if l.customLogger == nil {
			return ErrNilLogger
		}
		l.slogger.Store(l.customLogger)
		if l.registerGlobal {
			slog.SetDefault(l.customLogger)
		}
		return nil
	}

	opts := &slog.HandlerOptions{
		Level:       l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.buildReplaceAttr(),
	}

	var handler slog.Handler
	switch l.handlerType {
	case JSONHandler:
		handler = slog.NewJSONHandler(l.output, opts)
	case TextHandler:
		handler = slog.NewTextHandler(l.output, opts)
	case ConsoleHandler:
		handler = newConsoleHandler(l.output, opts)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidHandler, l.handlerType)
	}

	newLogger := slog.New(handler)

	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		newLogger = newLogger.With(attrs...)
	}

	l.slogger.Store(newLogger)
	if l.registerGlobal {
		slog.SetDefault(newLogger)
	}
	return nil
}

func (l *Logger) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case "password", "token", "secret", "api_key", "authorization":
			return slog.String(a.Key, "***REDACTED***")
		}
		if l.replaceAttr != nil {
			return l.replaceAttr(groups, a)
		}
		return a
	}
}

// Logger returns the underlying slog.Logger.
func (l *Logger) Logger() *slog.Logger { return l.slogger.Load() }

// With returns a slog.Logger with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger { return l.Logger().With(args...) }

// WithGroup returns a slog.Logger with a group name.
func (l *Logger) WithGroup(name string) *slog.Logger { return l.Logger().WithGroup(name) }

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if l.isShuttingDown.Load() {
		return
	}
	logger := l.Logger()
	if !logger.Enabled(bgCtx, level) {
		return
	}
	if !l.shouldSample(level) {
		return
	}
	logger.Log(bgCtx, level, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Shutdown stops the sampling ticker and flushes the handler if it
// supports flushing, adapted from logging/logger.go's Shutdown. Logger
// does not implement fairing.ShutdownFairing, so the fairing registry's
// shutdown pass does not call it.
func (l *Logger) Shutdown(_ context.Context) error {
	l.isShuttingDown.Store(true)
	if l.sampleTicker != nil {
		l.sampleTicker.Stop()
		close(l.sampleStop)
	}
	logger := l.Logger()
	if logger != nil {
		if flusher, ok := logger.Handler().(interface{ Flush() error }); ok {
			return flusher.Flush()
		}
	}
	return nil
}

// SetLevel changes the minimum log level at runtime. Not supported with
// a custom logger.
func (l *Logger) SetLevel(level Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.useCustom {
		return ErrCannotChangeLevel
	}
	old := l.level
	l.level = level
	if err := l.initializeHandler(); err != nil {
		l.level = old
		return err
	}
	return nil
}

// Level returns the current minimum log level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// IsEnabled reports whether the Logger is still accepting log calls.
func (l *Logger) IsEnabled() bool { return !l.isShuttingDown.Load() }
