package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ResourceReport is the resource type of every report action.
const ResourceReport = "report"

// Entry records who generated or exported which report.
type Entry struct {
	ID            string
	Actor         string
	Role          string
	Action        string
	ResourceType  string
	ResourceID    string
	MainClientID  string
	Period        string
	Metadata      json.RawMessage
	PayloadDigest string
	IP            string
	UserAgent     string
	CreatedAt     time.Time
}

// Logger writes audit entries.
type Logger interface {
	Log(ctx context.Context, entry Entry) error
}

// WithMetadata encodes meta into the entry. Unencodable metadata is dropped.
func (e Entry) WithMetadata(meta any) Entry {
	payload, err := json.Marshal(meta)
	if err != nil {
		return e
	}
	e.Metadata = payload
	e.PayloadDigest = DigestJSON(payload)
	return e
}

// normalize fills id, timestamp and digest, and stores empty metadata as {}.
func (e Entry) normalize(now time.Time) Entry {
	if e.ID == "" {
		e.ID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now.UTC()
	}
	if e.PayloadDigest == "" {
		e.PayloadDigest = DigestJSON(e.Metadata)
	}
	if len(e.Metadata) == 0 {
		e.Metadata = json.RawMessage("{}")
	}
	return e
}

// NewID generates a random audit id.
func NewID() string {
	return "audit-" + uuid.NewString()
}

// DigestJSON is the hex SHA-256 of a metadata payload, or "" when empty.
func DigestJSON(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
