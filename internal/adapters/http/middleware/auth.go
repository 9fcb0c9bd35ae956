package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"orchestra/internal/adapters/identity"
	domainMember "orchestra/internal/domain/member"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// TokenCookieName is the cookie a browser client may carry its ID token in.
const TokenCookieName = "orchestra_token"

// Session is the verified principal together with their member record.
type Session struct {
	Principal identity.Principal
	Member    domainMember.Member
}

// Role returns the member's role.
func (s Session) Role() string {
	return s.Member.Role
}

// Resolver loads (or creates) the member record for a verified principal.
type Resolver func(ctx context.Context, p identity.Principal) (domainMember.Member, error)

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func requestToken(r *http.Request) string {
	if t := bearerToken(r); t != "" {
		return t
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Auth returns middleware that verifies the request's ID token and puts the
// session in context. It does NOT block unauthenticated requests; use
// RequireAuth or RequireRole for that.
func Auth(verifier identity.Verifier, resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := requestToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				zap.L().Debug("auth_event", zap.String("event", "token_rejected"), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			m, err := resolve(r.Context(), p)
			if err != nil {
				zap.L().Error("auth_event", zap.String("event", "profile_unavailable"), zap.String("uid", p.UID), zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			ctx := ContextWithSession(r.Context(), Session{Principal: p, Member: m})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns middleware that blocks unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that blocks requests from users without one of the specified roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := GetSessionFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !roleSet[session.Role()] {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// IsRole checks if the current session has one of the given roles.
func IsRole(ctx context.Context, roles ...string) bool {
	session, ok := GetSessionFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if session.Role() == r {
			return true
		}
	}
	return false
}

// IsAdmin checks if the current session may manage the roster.
func IsAdmin(ctx context.Context) bool {
	session, ok := GetSessionFromContext(ctx)
	return ok && domainMember.CanAccessMembers(session.Role())
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
