package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Initialize sets up the logger with the specified level. Log output goes to
// stderr so the stdio transport keeps stdout free for protocol frames.
func Initialize(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	log.Infof(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

// WithFields returns an entry carrying structured fields for request-scoped
// logging.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

// RequestLog logs details of an HTTP request
func RequestLog(method, url, connID, body string) {
	Debug("HTTP request: %s %s", method, url)
	if connID != "" {
		Debug("Connection ID: %s", connID)
	}
	if body != "" {
		Debug("Request body: %s", body)
	}
}

// SSEEventLog logs details of an SSE event
func SSEEventLog(eventType, connID, data string) {
	Debug("SSE event: %s conn=%s data=%s", eventType, connID, data)
}
