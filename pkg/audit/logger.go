// Package audit records authentication events. Audit logging is best-effort:
// a failing logger must never block or change the outcome of the
// authentication that produced the event.
package audit

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger records audit events.
type Logger interface {
	Log(ctx context.Context, event *Event) error
}

// NopLogger discards every event.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(ctx context.Context, event *Event) error { return nil }

// StreamLogger writes one structured JSON line per event.
type StreamLogger struct {
	log *logrus.Logger
}

// NewStreamLogger creates a logger writing JSON events to out.
func NewStreamLogger(out io.Writer) *StreamLogger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{})
	return &StreamLogger{log: log}
}

// Log implements Logger.
func (l *StreamLogger) Log(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	fields := logrus.Fields{
		"event_type":  event.EventType,
		"user_id":     event.UserID,
		"method":      event.Method,
		"caller_addr": event.CallerAddr,
	}
	if event.SponsoreeID != "" {
		fields["sponsoree_id"] = event.SponsoreeID
	}
	l.log.WithFields(fields).WithTime(event.Timestamp).Info(event.Message)
	return nil
}

// MultiLogger fans events out to several loggers, continuing past individual
// failures and reporting the first one.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger writing to every given destination.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log implements Logger.
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Log(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
