package main

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"--db", "postgres://x", "--main", "main-1", "--from", "2025-01", "--to", "2025-03", "--subs", "sub-a, sub-b"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.from.String() != "2025-01" || cfg.to.String() != "2025-03" {
		t.Fatalf("unexpected range %s..%s", cfg.from, cfg.to)
	}
	if len(cfg.subClientIDs) != 2 || cfg.subClientIDs[1] != "sub-b" {
		t.Fatalf("unexpected subs %v", cfg.subClientIDs)
	}
	if cfg.out != filepath.Join("out", "period-main-1-2025-01-2025-03.xlsx") {
		t.Fatalf("unexpected default out %q", cfg.out)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	cases := map[string][]string{
		"no main":    {"--db", "x", "--from", "2025-01", "--to", "2025-02"},
		"no range":   {"--db", "x", "--main", "m"},
		"bad from":   {"--db", "x", "--main", "m", "--from", "2025/01", "--to", "2025-02"},
		"reversed":   {"--db", "x", "--main", "m", "--from", "2025-03", "--to", "2025-02"},
		"zero limit": {"--db", "x", "--main", "m", "--from", "2025-01", "--to", "2025-02", "--max-subs", "0"},
		"unknown":    {"--db", "x", "--bogus"},
	}
	for name, args := range cases {
		if _, err := parseFlags(args, io.Discard); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_DSN", "")
	_, err := parseFlags([]string{"--main", "m", "--from", "2025-01", "--to", "2025-02"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--db") {
		t.Fatalf("expected missing db error, got %v", err)
	}
}
