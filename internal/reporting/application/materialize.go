package application

import (
	"context"
	"errors"
	"fmt"

	clients "energy-accounting/internal/clients/domain"
	meteringapp "energy-accounting/internal/metering/application"
	metering "energy-accounting/internal/metering/domain"
	"energy-accounting/internal/observability/metrics"
	reporting "energy-accounting/internal/reporting/domain"
)

// MeterResolver returns a client's daily series for a month.
type MeterResolver interface {
	Resolve(ctx context.Context, client clients.Entity, period metering.BillingPeriod) (*meteringapp.Resolution, error)
}

// outcome collects the degraded-but-continue notes of one generation.
type outcome struct {
	usingCheckMeter []string
	withoutMeters   []string
	warnings        []string
}

func newOutcome() *outcome {
	return &outcome{usingCheckMeter: []string{}, withoutMeters: []string{}}
}

func (o *outcome) warn(format string, args ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf(format, args...))
}

// resolveMain fails the whole request when the main client has no usable data.
func (o *outcome) resolveMain(ctx context.Context, resolver MeterResolver, main clients.MainClient, period metering.BillingPeriod) (*meteringapp.Resolution, error) {
	res, err := resolver.Resolve(ctx, main, period)
	if err != nil {
		return nil, err
	}
	o.noteResolution(res)
	return res, nil
}

// resolveSub returns nil, nil when the sub client is excluded from the report.
func (o *outcome) resolveSub(ctx context.Context, resolver MeterResolver, sub clients.SubClient, period metering.BillingPeriod) (*meteringapp.Resolution, error) {
	res, err := resolver.Resolve(ctx, sub, period)
	if err != nil {
		switch {
		case errors.Is(err, metering.ErrNoMeterData):
			metrics.IncReportDegraded(metrics.DegradedNoMeterData)
		case errors.Is(err, clients.ErrInvalidPolarity), errors.Is(err, clients.ErrInvalidMultiplyingFactor):
			metrics.IncReportDegraded(metrics.DegradedBadProfile)
		default:
			return nil, err
		}
		o.withoutMeters = append(o.withoutMeters, sub.ID)
		o.warn("sub client %s excluded: %v", sub.ID, err)
		return nil, nil
	}
	o.noteResolution(res)
	return res, nil
}

func (o *outcome) noteResolution(res *meteringapp.Resolution) {
	if res.UsedCheckMeter {
		o.usingCheckMeter = append(o.usingCheckMeter, res.ClientID)
		metrics.IncReportDegraded(metrics.DegradedCheckMeter)
	}
	if res.SkippedEntries > 0 {
		o.warn("client %s: %d interval entries skipped on meter %s", res.ClientID, res.SkippedEntries, res.MeterNumber)
		metrics.IncReportDegraded(metrics.DegradedSkippedEntry)
	}
}

func meterUsage(res *meteringapp.Resolution) reporting.MeterUsage {
	return reporting.MeterUsage{MeterNumber: res.MeterNumber, UsedCheckMeter: res.UsedCheckMeter}
}

func validateRequest(mainClientID string, period metering.BillingPeriod) error {
	if mainClientID == "" {
		return reporting.ErrEmptyMainClientID
	}
	return period.Validate()
}
