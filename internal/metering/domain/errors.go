package metering

import "errors"

var (
	// ErrNoIntervalData is returned when a meter has no interval entries for the period.
	ErrNoIntervalData = errors.New("metering: no interval data")
	// ErrMalformedDate is returned when an interval date cannot be read as a calendar date.
	ErrMalformedDate = errors.New("metering: malformed interval date")
	// ErrNonFiniteReading is returned when a register value is NaN or infinite.
	ErrNonFiniteReading = errors.New("metering: non-finite reading")
	// ErrInvalidPeriod is returned for a month outside 1..12 or an unsupported year.
	ErrInvalidPeriod = errors.New("metering: invalid billing period")
	// ErrEmptyMeterNumber is returned when a record has no meter number.
	ErrEmptyMeterNumber = errors.New("metering: empty meter number")
	// ErrEmptySubClientID is returned when a logger reading has no sub client.
	ErrEmptySubClientID = errors.New("metering: empty sub client id")
)

// ErrNoMeterData is returned when neither the main nor the check meter has usable data.
var ErrNoMeterData = errors.New("metering: no meter data")
