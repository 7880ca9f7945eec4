package clients

import "errors"

var (
	// ErrClientNotFound is returned when a referenced client does not exist.
	ErrClientNotFound = errors.New("clients: not found")
	// ErrInvalidPolarity is returned for a pn value other than +1 or -1.
	ErrInvalidPolarity = errors.New("clients: pn must be 1 or -1")
	// ErrInvalidMultiplyingFactor is returned when mf is not a finite positive number.
	ErrInvalidMultiplyingFactor = errors.New("clients: mf must be a finite positive number")
	// ErrEmptyID is returned when a client id is empty.
	ErrEmptyID = errors.New("clients: empty id")
	// ErrEmptyParent is returned when a sub or part client has no parent reference.
	ErrEmptyParent = errors.New("clients: empty parent id")
	// ErrForeignSubClient is returned when a sub client does not belong to the requested main client.
	ErrForeignSubClient = errors.New("clients: sub client belongs to another main client")
)
