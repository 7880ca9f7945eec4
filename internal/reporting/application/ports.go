package application

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	metering "energy-accounting/internal/metering/domain"
	reporting "energy-accounting/internal/reporting/domain"
)

// Locker serializes generation per report key. The returned release func must be called once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ReportGenerated is emitted when a document is computed and stored.
type ReportGenerated struct {
	Kind         reporting.DocumentKind
	DocumentID   string
	MainClientID string
	Period       metering.BillingPeriod
	SubClientIDs []string
	Warnings     int
	OccurredAt   time.Time
}

// ReportPublisher emits report generated events.
type ReportPublisher interface {
	PublishReportGenerated(ctx context.Context, event ReportGenerated) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type serviceOptions struct {
	locker    Locker
	publisher ReportPublisher
	clock     Clock
	logger    *log.Logger
	newID     func() string
}

// ServiceOption configures a report service.
type ServiceOption func(*serviceOptions)

// WithLocker sets the per-key lock used around check-then-generate.
func WithLocker(locker Locker) ServiceOption {
	return func(o *serviceOptions) {
		if locker != nil {
			o.locker = locker
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(publisher ReportPublisher) ServiceOption {
	return func(o *serviceOptions) {
		o.publisher = publisher
	}
}

// WithClock overrides the clock.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator overrides document id generation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		locker: newLocalLocker(),
		clock:  SystemClock{},
		logger: log.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func (o serviceOptions) publish(ctx context.Context, event ReportGenerated) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishReportGenerated(ctx, event); err != nil {
		o.logger.Printf("report publish failed: kind=%s id=%s err=%v", event.Kind, event.DocumentID, err)
	}
}

func lockKey(kind reporting.DocumentKind, mainClientID string, period metering.BillingPeriod) string {
	return string(kind) + "|" + mainClientID + "|" + period.Key()
}
