package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mediavault/mediavault/internal/server/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier checks a raw token and returns the verified identity.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*auth.Claims, error)
}

// AuthMiddleware verifies the identity token on every request. The token is
// taken from the Authorization header (Bearer scheme) or, failing that, from
// the id_token cookie set by the login flow.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie("id_token"); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(
					errors.New("not authenticated")))
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}

// ClaimsFromContext extracts the verified identity from the request context.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
