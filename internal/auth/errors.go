package auth

import "errors"

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrIngestNotConfigured = errors.New("auth: ingest secret not configured")
	ErrMissingSignature    = errors.New("auth: missing ingest signature")
	ErrStaleSignature      = errors.New("auth: ingest signature outside allowed skew")
	ErrBadSignature        = errors.New("auth: ingest signature mismatch")
)
