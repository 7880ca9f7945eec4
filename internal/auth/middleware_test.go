package auth

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SubjectFromContext(r.Context()) == "" && r.URL.Path != "/healthz" {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy([]string{"/healthz"}, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/daily", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected exempt path to pass, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerCanRead(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "viewer")
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/period?main_client_id=main-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenGenerateAndExport(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "viewer")
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/reports/daily/generate"},
		{http.MethodGet, "/api/v1/reports/monthly-losses/export.pdf"},
		{http.MethodGet, "/api/v1/reports/period/export.xlsx"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestAuthMiddleware_OperatorCanGenerate(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueJWT(secret, "user-2", RoleOperator, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/monthly-losses/generate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestParseJWTRejectsWrongSecretAndRole(t *testing.T) {
	token := mustToken(t, []byte("one"), "viewer")
	if _, err := ParseJWT(token, []byte("two")); err == nil {
		t.Fatalf("expected signature error")
	}
	bad := mustToken(t, []byte("one"), "root")
	if _, err := ParseJWT(bad, []byte("one")); err == nil {
		t.Fatalf("expected invalid role error")
	}
}

func TestIngestAuthMiddleware(t *testing.T) {
	secret := []byte("ingest-secret")
	now := time.Unix(1_740_000_000, 0)
	mw := NewIngestAuthMiddleware(secret, 5*time.Minute)
	mw.now = func() time.Time { return now }
	var seen []byte
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))

	body := []byte(`{"meter_number":"M-1"}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/ingest/meter-records", bytes.NewReader(body))
	req.Header.Set(HeaderIngestTimestamp, ts)
	req.Header.Set(HeaderIngestSignature, SignIngest(secret, ts, body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusAccepted || !bytes.Equal(seen, body) {
		t.Fatalf("expected body passed through, got %d %q", resp.Code, seen)
	}

	stale := strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)
	req = httptest.NewRequest(http.MethodPost, "/ingest/meter-records", bytes.NewReader(body))
	req.Header.Set(HeaderIngestTimestamp, stale)
	req.Header.Set(HeaderIngestSignature, SignIngest(secret, stale, body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected stale signature rejected, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ingest/meter-records", bytes.NewReader(body))
	req.Header.Set(HeaderIngestTimestamp, ts)
	req.Header.Set(HeaderIngestSignature, SignIngest([]byte("other"), ts, body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected bad signature rejected, got %d", resp.Code)
	}
}

func mustToken(t *testing.T, secret []byte, role string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
