// Package logger wraps logrus with the one property the supervision engine
// needs from its ambient logger: silence on the happy path. Only Warn and
// more severe entries are emitted unless a caller lowers the level, since
// the engine itself must produce no mandatory output.
package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// SafeLogger is a thread-safe logger tagged with a run ID so log lines from
// concurrent Supervisor.Run calls (across different Supervisor values) can
// be told apart.
type SafeLogger struct {
	logger *logrus.Logger
	runID  string
	mu     sync.Mutex
}

// NewSafeLogger creates a thread-safe logger writing to filename.
func NewSafeLogger(filename, runID string) (*SafeLogger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.WarnLevel)

	return &SafeLogger{logger: logger, runID: runID}, nil
}

// NewSilentLogger creates a logger to stderr at Warn level: Debug/Trace
// diagnostics are the only way to see pump or fork activity, and nothing is
// written unless something actually goes wrong.
func NewSilentLogger(runID string) *SafeLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)

	return &SafeLogger{logger: logger, runID: runID}
}

// SetLevel changes the minimum level that reaches the output, e.g. Debug
// for callers diagnosing a supervised run.
func (sl *SafeLogger) SetLevel(level logrus.Level) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.logger.SetLevel(level)
}

// Log logs a message with the given level and fields
func (sl *SafeLogger) Log(level logrus.Level, msg string, fields logrus.Fields) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if fields == nil {
		fields = logrus.Fields{}
	}
	if sl.runID != "" {
		fields["run_id"] = sl.runID
	}

	entry := sl.logger.WithFields(fields)
	switch level {
	case logrus.TraceLevel:
		entry.Trace(msg)
	case logrus.DebugLevel:
		entry.Debug(msg)
	case logrus.InfoLevel:
		entry.Info(msg)
	case logrus.WarnLevel:
		entry.Warn(msg)
	case logrus.ErrorLevel:
		entry.Error(msg)
	case logrus.FatalLevel:
		entry.Fatal(msg)
	case logrus.PanicLevel:
		entry.Panic(msg)
	}
}

// Helper methods for different log levels
func (sl *SafeLogger) Trace(msg string, fields logrus.Fields) {
	sl.Log(logrus.TraceLevel, msg, fields)
}

func (sl *SafeLogger) Debug(msg string, fields logrus.Fields) {
	sl.Log(logrus.DebugLevel, msg, fields)
}

func (sl *SafeLogger) Info(msg string, fields logrus.Fields) {
	sl.Log(logrus.InfoLevel, msg, fields)
}

func (sl *SafeLogger) Warn(msg string, fields logrus.Fields) {
	sl.Log(logrus.WarnLevel, msg, fields)
}

func (sl *SafeLogger) Error(msg string, fields logrus.Fields) {
	sl.Log(logrus.ErrorLevel, msg, fields)
}
