// Package log provides the leveled logger used by the syncer and the command line tool.
package log

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled and structured logger.
type Logger interface {
	Debug(args ...interface{})
	Debugf(msg string, args ...interface{})
	Info(args ...interface{})
	Infof(msg string, args ...interface{})
	Warning(args ...interface{})
	Warningf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
	// With returns a logger which adds the key value pairs to every entry.
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

// DefaultLogger writes every level in development format.
var DefaultLogger Logger = mustNewLogger(zap.NewDevelopmentConfig())

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewDefaultProductionLogger returns a JSON logger at info level.
func NewDefaultProductionLogger() (Logger, error) {
	return NewLogger("info")
}

// NewLogger returns a JSON logger at the level, one of debug, info, warn or error.
func NewLogger(level string) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return newLogger(cfg)
}

// NewSilentLogger returns a logger which drops every entry.
func NewSilentLogger() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

// ParseLevel converts a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	var lvl zapcore.Level
	switch strings.ToLower(level) {
	case "warning":
		return zapcore.WarnLevel, nil
	case "":
		return zapcore.InfoLevel, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

func newLogger(cfg zap.Config) (Logger, error) {
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: logger.Sugar()}, nil
}

func mustNewLogger(cfg zap.Config) Logger {
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	return logger
}

func (l *zapLogger) Debug(args ...interface{})                { l.sugar.Debug(args...) }
func (l *zapLogger) Debugf(msg string, args ...interface{})   { l.sugar.Debugf(msg, args...) }
func (l *zapLogger) Info(args ...interface{})                 { l.sugar.Info(args...) }
func (l *zapLogger) Infof(msg string, args ...interface{})    { l.sugar.Infof(msg, args...) }
func (l *zapLogger) Warning(args ...interface{})              { l.sugar.Warn(args...) }
func (l *zapLogger) Warningf(msg string, args ...interface{}) { l.sugar.Warnf(msg, args...) }
func (l *zapLogger) Error(args ...interface{})                { l.sugar.Error(args...) }
func (l *zapLogger) Errorf(msg string, args ...interface{})   { l.sugar.Errorf(msg, args...) }

func (l *zapLogger) With(keysAndValues ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
