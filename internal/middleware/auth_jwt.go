package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"voxscribe/internal/identity"
)

// SessionVerifier turns a bearer token into a session.
type SessionVerifier interface {
	VerifySession(raw string) (*identity.Session, error)
}

type sessionKey struct{}

// AuthJWT rejects requests without a valid session token in the
// Authorization header.
func AuthJWT(v SessionVerifier) func(http.Handler) http.Handler {
	return authenticate(v, false)
}

// AuthJWTQuery also accepts the token from the access_token query parameter,
// for clients such as EventSource that cannot set headers.
func AuthJWTQuery(v SessionVerifier) func(http.Handler) http.Handler {
	return authenticate(v, true)
}

func authenticate(v SessionVerifier, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" && allowQuery {
				raw = strings.TrimSpace(r.URL.Query().Get("access_token"))
			}
			if raw == "" {
				unauthorized(w, "missing authorization")
				return
			}
			sess, err := v.VerifySession(raw)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="voxscribe"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthorized", "message": msg},
	})
}

// SessionFromContext returns the authenticated session or nil.
func SessionFromContext(ctx context.Context) *identity.Session {
	if v, ok := ctx.Value(sessionKey{}).(*identity.Session); ok {
		return v
	}
	return nil
}

func ContextWithSession(ctx context.Context, sess *identity.Session) context.Context {
	if sess == nil || strings.TrimSpace(sess.UserID) == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, sess)
}

func UserIDFromContext(ctx context.Context) string {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.UserID
	}
	return ""
}
