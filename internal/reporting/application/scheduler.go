package application

import (
	"context"
	"log"
	"time"

	metering "energy-accounting/internal/metering/domain"
)

// DailyGenerator regenerates daily reports.
type DailyGenerator interface {
	Generate(ctx context.Context, req DailyReportRequest) (*DailyReportResult, error)
}

// LossesGenerator regenerates monthly losses.
type LossesGenerator interface {
	Generate(ctx context.Context, req MonthlyLossesRequest) (*MonthlyLossesResult, error)
}

// Scheduler regenerates reports for configured main clients once a day.
type Scheduler struct {
	daily       DailyGenerator
	losses      LossesGenerator
	mainClients []string
	dailyAt     string
	logger      *log.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(daily DailyGenerator, losses LossesGenerator, schedule ScheduleConfig, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		daily:       daily,
		losses:      losses,
		mainClients: schedule.MainClients,
		dailyAt:     schedule.DailyAt,
		logger:      logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || (s.daily == nil && s.losses == nil) {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.RunOnce(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

// RunOnce regenerates the current month, and the previous month on the first
// day of a month so late meter data for it is picked up.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) int {
	periods := SchedulePeriods(now)
	runs := 0
	for _, mainClientID := range s.mainClients {
		if mainClientID == "" {
			continue
		}
		for _, period := range periods {
			if ctx.Err() != nil {
				return runs
			}
			if s.daily != nil {
				if _, err := s.daily.Generate(ctx, DailyReportRequest{MainClientID: mainClientID, Period: period, Force: true}); err != nil {
					s.logger.Printf("report schedule error: kind=daily_report main=%s period=%s err=%v", mainClientID, period, err)
				} else {
					runs++
				}
			}
			if s.losses != nil {
				if _, err := s.losses.Generate(ctx, MonthlyLossesRequest{MainClientID: mainClientID, Period: period, Force: true}); err != nil {
					s.logger.Printf("report schedule error: kind=monthly_losses main=%s period=%s err=%v", mainClientID, period, err)
				} else {
					runs++
				}
			}
		}
	}
	return runs
}

// SchedulePeriods lists the months a run at now regenerates.
func SchedulePeriods(now time.Time) []metering.BillingPeriod {
	current := metering.PeriodOf(now.UTC())
	if now.UTC().Day() == 1 {
		return []metering.BillingPeriod{current.Prev(), current}
	}
	return []metering.BillingPeriod{current}
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
