package interfaces

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"energy-accounting/internal/reporting/application"
)

// LoggingPublisher writes one log line per generated report document.
type LoggingPublisher struct {
	logger *log.Logger
}

// NewLoggingPublisher constructs a logging publisher; a nil logger uses log.Default.
func NewLoggingPublisher(logger *log.Logger) *LoggingPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingPublisher{logger: logger}
}

// PublishReportGenerated logs the event. An empty sub client set prints as "all".
func (p *LoggingPublisher) PublishReportGenerated(_ context.Context, event application.ReportGenerated) error {
	if p == nil || p.logger == nil {
		return errors.New("report publisher: nil publisher")
	}
	subs := "all"
	if len(event.SubClientIDs) > 0 {
		subs = strings.Join(event.SubClientIDs, ",")
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	p.logger.Printf("report generated: kind=%s id=%s main=%s period=%s subs=%s warnings=%d at=%s",
		event.Kind, event.DocumentID, event.MainClientID, event.Period, subs, event.Warnings, occurred.UTC().Format(time.RFC3339))
	return nil
}
