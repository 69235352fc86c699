package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/medibook/clinic-booking/internal/accounts"
)

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*accounts.Claims, error)
}

// RequireAuth rejects requests without a valid, unrevoked bearer token and
// stores the claims on the request context.
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			token, ok := accounts.BearerToken(r)
			if !ok {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, accounts.ErrTokenRevoked):
					http.Error(w, "token revoked", http.StatusUnauthorized)
				case errors.Is(err, accounts.ErrInvalidToken):
					http.Error(w, "invalid token", http.StatusUnauthorized)
				default:
					http.Error(w, "auth unavailable", http.StatusServiceUnavailable)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(accounts.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...accounts.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := accounts.ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}
