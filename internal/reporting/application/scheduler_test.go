package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"
)

type countingDaily struct {
	requests []DailyReportRequest
}

func (c *countingDaily) Generate(ctx context.Context, req DailyReportRequest) (*DailyReportResult, error) {
	_ = ctx
	c.requests = append(c.requests, req)
	if req.MainClientID == "broken" {
		return nil, errors.New("boom")
	}
	return &DailyReportResult{}, nil
}

type countingLosses struct {
	requests []MonthlyLossesRequest
}

func (c *countingLosses) Generate(ctx context.Context, req MonthlyLossesRequest) (*MonthlyLossesResult, error) {
	_ = ctx
	c.requests = append(c.requests, req)
	return &MonthlyLossesResult{}, nil
}

func TestSchedulePeriods(t *testing.T) {
	mid := SchedulePeriods(time.Date(2025, 3, 15, 3, 0, 0, 0, time.UTC))
	if len(mid) != 1 || mid[0].Key() != "2025-03" {
		t.Fatalf("unexpected mid-month periods %v", mid)
	}
	first := SchedulePeriods(time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC))
	if len(first) != 2 || first[0].Key() != "2024-12" || first[1].Key() != "2025-01" {
		t.Fatalf("unexpected first-day periods %v", first)
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	daily := &countingDaily{}
	losses := &countingLosses{}
	s := NewScheduler(daily, losses, ScheduleConfig{DailyAt: "03:00", MainClients: []string{"main-1", "", "broken"}}, log.New(io.Discard, "", 0))

	runs := s.RunOnce(context.Background(), time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC))
	if len(daily.requests) != 4 || len(losses.requests) != 4 {
		t.Fatalf("expected 2 clients x 2 periods, got daily=%d losses=%d", len(daily.requests), len(losses.requests))
	}
	if runs != 6 {
		t.Fatalf("expected 6 successful runs, got %d", runs)
	}
	for _, req := range daily.requests {
		if !req.Force {
			t.Fatalf("scheduled runs must force regeneration")
		}
	}
	if !s.shouldRun(time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC)) || s.shouldRun(time.Date(2025, 3, 2, 3, 1, 0, 0, time.UTC)) {
		t.Fatalf("unexpected shouldRun result")
	}
}
