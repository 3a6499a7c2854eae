// Package zaplog adapts zap to the key/value logger interfaces used across
// the module. Callers hold the concrete *Logger; packages that only emit
// events declare their own small interface and accept this one structurally.
package zaplog

import (
	"go.uber.org/zap"
)

// Logger forwards structured key/value events to a zap SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a logger. Development mode uses the console encoder at debug
// level; production mode emits JSON at info level.
func New(development bool) (*Logger, error) {
	var zl *zap.Logger
	var err error
	if development {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return FromZap(zl), nil
}

// FromZap wraps an already configured zap logger.
func FromZap(zl *zap.Logger) *Logger {
	return &Logger{sugar: zl.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.sugar.Debugw(msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.sugar.Infow(msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.sugar.Warnw(msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.sugar.Errorw(msg, keyvals...) }

// Sync flushes buffered entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
