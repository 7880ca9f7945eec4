package reporting

import "errors"

var (
	// ErrEmptyMainClientID is returned when a request has no main client.
	ErrEmptyMainClientID = errors.New("reporting: main_client_id required")
	// ErrReportNotFound is returned when no document exists for a key.
	ErrReportNotFound = errors.New("reporting: report not found")
	// ErrNilDocument is returned when saving a nil document.
	ErrNilDocument = errors.New("reporting: nil document")
	// ErrInvalidRange is returned when a period range ends before it starts.
	ErrInvalidRange = errors.New("reporting: invalid period range")
	// ErrRangeTooLong is returned when a period range exceeds the configured limit.
	ErrRangeTooLong = errors.New("reporting: period range too long")
	// ErrTooManySubClients is returned when more sub clients are requested than a period report allows.
	ErrTooManySubClients = errors.New("reporting: too many sub clients")
)
