package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with the fields-map calling convention used
// throughout this codebase.
type Logger struct {
	inner *logrus.Logger
}

var (
	instance *Logger
	once     sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		instance = setupLogger()
	})
	return instance
}

// L is shorthand for GetLogger.
func L() *Logger {
	return GetLogger()
}

func setupLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "02-01-06:15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	if os.Getenv("MIDAS_DEBUG") != "" {
		l.SetLevel(logrus.DebugLevel)
	}
	return &Logger{inner: l}
}

func fields(props []map[string]interface{}) logrus.Fields {
	if len(props) == 0 || props[0] == nil {
		return logrus.Fields{}
	}
	return logrus.Fields(props[0])
}

func (l *Logger) Info(msg string, props ...map[string]interface{}) {
	l.inner.WithFields(fields(props)).Info(msg)
}

func (l *Logger) Warn(msg string, props ...map[string]interface{}) {
	l.inner.WithFields(fields(props)).Warn(msg)
}

func (l *Logger) Error(msg string, props ...map[string]interface{}) {
	l.inner.WithFields(fields(props)).Error(msg)
}

func (l *Logger) Debug(msg string, props ...map[string]interface{}) {
	l.inner.WithFields(fields(props)).Debug(msg)
}

func (l *Logger) Fatal(msg string, props ...map[string]interface{}) {
	l.inner.WithFields(fields(props)).Fatal(msg)
}

// EnableDebug enables debug logging.
func (l *Logger) EnableDebug() {
	l.inner.SetLevel(logrus.DebugLevel)
}
