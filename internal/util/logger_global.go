package util

import (
	"os"
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerMu     sync.RWMutex
)

// InitLogger replaces the global logger. Warnings and errors always reach
// stderr; debugToConsole sends every level there. A non-empty logFile receives
// every enabled level as well.
func InitLogger(logLevel, logFile string, debugToConsole bool, format LogFormat) error {
	logger := NewLogger(logLevel)

	console := NewConsoleOutput(os.Stderr, format)
	if !debugToConsole {
		console = &minLevelOutput{min: LevelWarn, next: console}
	}
	logger.AddOutput(console)

	if logFile != "" {
		fileOutput, err := NewFileOutput(logFile, format)
		if err != nil {
			return err
		}
		logger.AddOutput(fileOutput)
	}

	SetLogger(logger)
	return nil
}

// SetLogger installs l as the global logger, closing the previous one.
// A nil l silences logging.
func SetLogger(l LoggerInterface) {
	loggerMu.Lock()
	prev := globalLogger
	globalLogger = l
	loggerMu.Unlock()

	if prev != nil && prev != l {
		_ = prev.Close()
	}
}

func current() LoggerInterface {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

// minLevelOutput forwards entries at or above min
type minLevelOutput struct {
	min  LogLevel
	next Output
}

func (m *minLevelOutput) Write(entry LogEntry) error {
	if ParseLogLevel(entry.Level) < m.min {
		return nil
	}
	return m.next.Write(entry)
}

func (m *minLevelOutput) Close() error {
	return m.next.Close()
}

// LogInfo convenience functions for logging
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
