package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderIngestTimestamp = "X-Ingest-Timestamp"
	HeaderIngestSignature = "X-Ingest-Signature"

	maxIngestBody = 32 << 20
)

// IngestAuthMiddleware guards meter record and logger reading uploads.
// The signature is hex(HMAC-SHA256(secret, timestamp + "\n" + body)) and the
// timestamp must lie within MaxSkew of the server clock.
type IngestAuthMiddleware struct {
	Secret  []byte
	MaxSkew time.Duration
	now     func() time.Time
}

// NewIngestAuthMiddleware constructs ingest auth middleware.
func NewIngestAuthMiddleware(secret []byte, maxSkew time.Duration) *IngestAuthMiddleware {
	return &IngestAuthMiddleware{Secret: secret, MaxSkew: maxSkew, now: time.Now}
}

// Wrap verifies the upload and replays the consumed body to next.
func (m *IngestAuthMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := m.verify(r)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				http.Error(w, "read body error", http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (m *IngestAuthMiddleware) verify(r *http.Request) ([]byte, error) {
	if len(m.Secret) == 0 {
		return nil, ErrIngestNotConfigured
	}
	timestamp := strings.TrimSpace(r.Header.Get(HeaderIngestTimestamp))
	signature := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderIngestSignature)))
	if timestamp == "" || signature == "" {
		return nil, ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, ErrMissingSignature
	}
	if !m.withinSkew(time.Unix(ts, 0)) {
		return nil, ErrStaleSignature
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	_ = r.Body.Close()
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	if !hmac.Equal([]byte(signature), []byte(SignIngest(m.Secret, timestamp, body))) {
		return nil, ErrBadSignature
	}
	return body, nil
}

func (m *IngestAuthMiddleware) withinSkew(signedAt time.Time) bool {
	if m.MaxSkew <= 0 {
		return true
	}
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	skew := now().Sub(signedAt)
	if skew < 0 {
		skew = -skew
	}
	return skew <= m.MaxSkew
}

// SignIngest computes the signature an uploader must send.
func SignIngest(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("\n"))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
