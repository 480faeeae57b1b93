package util

import (
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitLogger installs the process-wide logger. Calling it again replaces the
// previous logger and closes its outputs.
func InitLogger(logLevel, logFile string, debugToConsole bool) error {
	l, err := NewLogger(LoggerOptions{
		Level:   logLevel,
		File:    logFile,
		Console: debugToConsole,
	})
	if err != nil {
		return err
	}
	if prev := SetLogger(l); prev != nil {
		_ = prev.Close()
	}
	return nil
}

// SetLogger swaps the global logger and returns the previous one
func SetLogger(l *Logger) *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	prev := globalLogger
	globalLogger = l
	return prev
}

// CloseLogger flushes and detaches the global logger
func CloseLogger() {
	if prev := SetLogger(nil); prev != nil {
		_ = prev.Close()
	}
}

func current() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// LogWith logs msg at level with structured fields
func LogWith(level LogLevel, msg string, fields ...Field) {
	if l := current(); l != nil {
		l.log(level, msg, fields...)
	}
}

func LogInfo(msg string) {
	if l := current(); l != nil {
		l.Info(msg)
	}
}

func LogInfof(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Infof(format, args...)
	}
}

func LogDebug(msg string) {
	if l := current(); l != nil {
		l.Debug(msg)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debugf(format, args...)
	}
}

func LogWarn(msg string) {
	if l := current(); l != nil {
		l.Warn(msg)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warnf(format, args...)
	}
}

func LogError(msg string) {
	if l := current(); l != nil {
		l.Error(msg)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Errorf(format, args...)
	}
}
