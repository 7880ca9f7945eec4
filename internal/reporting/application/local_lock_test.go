package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalLockerSerializesKey(t *testing.T) {
	locker := newLocalLocker()
	release, err := locker.Acquire(context.Background(), "daily_report|main-1|2025-03")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "daily_report|main-1|2025-03"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	other, err := locker.Acquire(context.Background(), "daily_report|main-1|2025-04")
	if err != nil {
		t.Fatalf("other key must not block: %v", err)
	}
	other()

	release()
	release()
	again, err := locker.Acquire(context.Background(), "daily_report|main-1|2025-03")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	if len(locker.slots) != 0 {
		t.Fatalf("expected slots to be dropped, got %d", len(locker.slots))
	}
}

func TestLocalLockerMutualExclusion(t *testing.T) {
	locker := newLocalLocker()
	var wg sync.WaitGroup
	inside := 0
	maxInside := 0
	var mu sync.Mutex
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "k")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
}

func TestConcurrentGenerateStoresOnce(t *testing.T) {
	f := newFixture(t)
	svc := f.dailyService(t)
	var wg sync.WaitGroup
	hits := make(chan bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Generate(context.Background(), DailyReportRequest{MainClientID: "main-1", Period: march})
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			hits <- res.CacheHit
		}()
	}
	wg.Wait()
	close(hits)
	fresh := 0
	for hit := range hits {
		if !hit {
			fresh++
		}
	}
	if fresh != 1 || f.docs.Saves() != 1 {
		t.Fatalf("expected exactly one computation, got fresh=%d saves=%d", fresh, f.docs.Saves())
	}
}
