package audit

import (
	"bytes"
	"context"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:4411"
	if got := ClientIP(req); got != "10.0.0.5" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Real-IP", " 10.0.0.9 ")
	if got := ClientIP(req); got != "10.0.0.9" {
		t.Fatalf("expected real ip, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
	if ClientIP(nil) != "" {
		t.Fatalf("expected empty ip for nil request")
	}
}

func TestLogLoggerFillsDigest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogLogger(log.New(&buf, "", 0))
	err := logger.Log(context.Background(), Entry{Action: "report.generate", MainClientID: "main-1", Metadata: []byte(`{"kind":"daily_report"}`)})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "action=report.generate") || !strings.Contains(out, "digest="+DigestJSON([]byte(`{"kind":"daily_report"}`))) {
		t.Fatalf("unexpected audit line %q", out)
	}
	if DigestJSON(nil) != "" {
		t.Fatalf("expected empty digest for empty payload")
	}
}

func TestEntryWithMetadata(t *testing.T) {
	entry := Entry{Action: "report.period.export"}.WithMetadata(map[string]any{"from": "2025-01"})
	if string(entry.Metadata) != `{"from":"2025-01"}` {
		t.Fatalf("unexpected metadata %s", entry.Metadata)
	}
	if entry.PayloadDigest != DigestJSON(entry.Metadata) {
		t.Fatalf("expected digest of metadata")
	}
	normalized := Entry{}.normalize(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(normalized.ID, "audit-") || string(normalized.Metadata) != "{}" || normalized.CreatedAt.IsZero() {
		t.Fatalf("unexpected normalized entry %+v", normalized)
	}
}
