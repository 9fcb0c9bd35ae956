package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orchestra/internal/adapters/identity"
	domainMember "orchestra/internal/domain/member"
)

const testSecret = "middleware-test-secret"

func issue(t *testing.T, v *identity.HMACVerifier, uid string) string {
	t.Helper()
	token, err := v.Issue(identity.Principal{UID: uid, Email: uid + "@example.com"}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func resolveAs(role string) Resolver {
	return func(_ context.Context, p identity.Principal) (domainMember.Member, error) {
		return domainMember.Member{ID: p.UID, Email: p.Email, Role: role}, nil
	}
}

// echoSession writes the session's member ID, or "anonymous".
var echoSession = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if s, ok := GetSessionFromContext(r.Context()); ok {
		w.Write([]byte(s.Member.ID))
		return
	}
	w.Write([]byte("anonymous"))
})

// TestAuth_BearerAndCookie verifies both token carriers populate the session.
func TestAuth_BearerAndCookie(t *testing.T) {
	v := identity.NewHMACVerifier(testSecret, "", "")
	handler := Auth(v, resolveAs(domainMember.RoleUser))(echoSession)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, v, "kim"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Body.String() != "kim" {
		t.Errorf("bearer body = %q, want kim", rr.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: issue(t, v, "lee")})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Body.String() != "lee" {
		t.Errorf("cookie body = %q, want lee", rr.Body.String())
	}
}

// TestAuth_InvalidTokenIsAnonymous verifies a bad token does not block by itself.
func TestAuth_InvalidTokenIsAnonymous(t *testing.T) {
	v := identity.NewHMACVerifier(testSecret, "", "")
	other := identity.NewHMACVerifier("another-secret", "", "")
	handler := Auth(v, resolveAs(domainMember.RoleUser))(echoSession)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, other, "kim"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", rr.Body.String())
	}
}

// TestAuth_ResolverFailure verifies a profile lookup failure is a 500.
func TestAuth_ResolverFailure(t *testing.T) {
	v := identity.NewHMACVerifier(testSecret, "", "")
	failing := func(context.Context, identity.Principal) (domainMember.Member, error) {
		return domainMember.Member{}, errors.New("database is locked")
	}
	handler := Auth(v, failing)(echoSession)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, v, "kim"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "locked") {
		t.Error("internal error detail leaked to client")
	}
}

// TestRequireRole verifies 401 without a session and 403 with the wrong role.
func TestRequireRole(t *testing.T) {
	handler := RequireRole(domainMember.RoleAdmin, domainMember.RoleSuperAdmin)(echoSession)

	cases := []struct {
		name   string
		role   string
		anon   bool
		status int
	}{
		{"anonymous", "", true, http.StatusUnauthorized},
		{"user", domainMember.RoleUser, false, http.StatusForbidden},
		{"admin", domainMember.RoleAdmin, false, http.StatusOK},
		{"superadmin", domainMember.RoleSuperAdmin, false, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/members", nil)
			if !tc.anon {
				sess := Session{Member: domainMember.Member{ID: "m1", Role: tc.role}}
				req = req.WithContext(ContextWithSession(req.Context(), sess))
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.status {
				t.Errorf("status = %d, want %d", rr.Code, tc.status)
			}
		})
	}
}

// TestRequireAuth verifies anonymous requests get 401.
func TestRequireAuth(t *testing.T) {
	rr := httptest.NewRecorder()
	RequireAuth(echoSession).ServeHTTP(rr, httptest.NewRequest("GET", "/api/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

// TestRateLimiter_Refill verifies the bucket empties and refills per interval.
func TestRateLimiter_Refill(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request inside the interval should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a different IP has its own bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after one interval")
	}
}

// TestRateLimit_Middleware verifies the 429 response and port stripping.
func TestRateLimit_Middleware(t *testing.T) {
	handler := RateLimit(NewRateLimiter(1, time.Hour))(echoSession)

	first := httptest.NewRequest("GET", "/", nil)
	first.RemoteAddr = "192.0.2.1:1000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	second := httptest.NewRequest("GET", "/", nil)
	second.RemoteAddr = "192.0.2.1:2000"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, second)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 (same host, different port)", rr.Code)
	}
}

// TestSecurityHeaders verifies the hardening headers are present.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(echoSession).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

// TestCSRF_ExemptionsAndFormPost verifies JSON and bearer posts pass while a
// tokenless form post is rejected.
func TestCSRF_ExemptionsAndFormPost(t *testing.T) {
	handler := CSRF(make([]byte, 32), false)(echoSession)

	jsonReq := httptest.NewRequest("POST", "/api/schedules", strings.NewReader("{}"))
	jsonReq.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, jsonReq)
	if rr.Code != http.StatusOK {
		t.Errorf("json status = %d, want 200", rr.Code)
	}

	bearerReq := httptest.NewRequest("POST", "/api/me/profile", strings.NewReader("name=x"))
	bearerReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	bearerReq.Header.Set("Authorization", "Bearer abc")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, bearerReq)
	if rr.Code != http.StatusOK {
		t.Errorf("bearer status = %d, want 200", rr.Code)
	}

	formReq := httptest.NewRequest("POST", "/api/me/profile", strings.NewReader("name=x"))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, formReq)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form status = %d, want 403", rr.Code)
	}
}
