package metering

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// BillingPeriod is a calendar month.
type BillingPeriod struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewBillingPeriod builds and validates a period.
func NewBillingPeriod(year, month int) (BillingPeriod, error) {
	p := BillingPeriod{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return BillingPeriod{}, err
	}
	return p, nil
}

// ParseBillingPeriod parses YYYY-MM.
func ParseBillingPeriod(value string) (BillingPeriod, error) {
	if value == "" {
		return BillingPeriod{}, fmt.Errorf("%w: month required", ErrInvalidPeriod)
	}
	t, err := time.Parse(periodLayout, value)
	if err != nil {
		return BillingPeriod{}, fmt.Errorf("%w: month must be YYYY-MM", ErrInvalidPeriod)
	}
	return BillingPeriod{Year: t.Year(), Month: int(t.Month())}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) BillingPeriod {
	return BillingPeriod{Year: t.Year(), Month: int(t.Month())}
}

// Validate checks month and year ranges.
func (p BillingPeriod) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	return nil
}

// Start returns the first instant of the month in UTC.
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the calendar day count (28-31).
func (p BillingPeriod) DaysInMonth() int {
	return p.Start().AddDate(0, 1, -1).Day()
}

// Next returns the following month.
func (p BillingPeriod) Next() BillingPeriod {
	return PeriodOf(p.Start().AddDate(0, 1, 0))
}

// Prev returns the preceding month.
func (p BillingPeriod) Prev() BillingPeriod {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

// Before reports whether p is strictly earlier than other.
func (p BillingPeriod) Before(other BillingPeriod) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Index is a monotonic month counter used for range arithmetic.
func (p BillingPeriod) Index() int {
	return p.Year*12 + p.Month - 1
}

// MonthsInRange counts months from..to inclusive; zero when to is before from.
func MonthsInRange(from, to BillingPeriod) int {
	n := to.Index() - from.Index() + 1
	if n < 0 {
		return 0
	}
	return n
}

// Key renders YYYY-MM.
func (p BillingPeriod) Key() string {
	return p.Start().Format(periodLayout)
}

func (p BillingPeriod) String() string { return p.Key() }
