package audit

import (
	"context"
	"log"
	"time"
)

// LogLogger writes audit entries to a standard logger when no database is configured.
type LogLogger struct {
	logger *log.Logger
}

// NewLogLogger constructs a LogLogger.
func NewLogLogger(logger *log.Logger) *LogLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &LogLogger{logger: logger}
}

// Log prints the entry.
func (l *LogLogger) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	entry = entry.normalize(time.Now())
	l.logger.Printf("audit: id=%s actor=%s role=%s action=%s resource=%s/%s main=%s period=%s digest=%s ip=%s",
		entry.ID, entry.Actor, entry.Role, entry.Action, entry.ResourceType, entry.ResourceID, entry.MainClientID, entry.Period, entry.PayloadDigest, entry.IP)
	return nil
}
