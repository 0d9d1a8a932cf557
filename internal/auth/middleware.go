package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "bobbystable/internal/errors"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Principal is whoever an authenticated request acts for.
type Principal struct {
	Subject string
	Role    string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// AdminAuthMiddleware admits staff holding either the session cookie or
// an admin bearer token.
func AdminAuthMiddleware(sessions *SessionManager, tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := sessions.User(r); ok {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Principal{Subject: user, Role: RoleAdmin})))
				return
			}
			if token, ok := bearer(r); ok {
				if claims, err := tokens.Verify(token); err == nil && claims.Role == RoleAdmin {
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Principal{Subject: claims.Subject, Role: RoleAdmin})))
					return
				}
			}
			apperrors.ErrUnauthorized("Unauthorized").Write(w)
		})
	}
}

// GuestAuthMiddleware admits any valid token; staff may drive calls too.
func GuestAuthMiddleware(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r)
			if !ok {
				apperrors.ErrUnauthorized("Unauthorized").Write(w)
				return
			}
			claims, err := tokens.Verify(token)
			if err != nil {
				apperrors.ErrUnauthorized("Unauthorized").Write(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), Principal{Subject: claims.Subject, Role: claims.Role})))
		})
	}
}
