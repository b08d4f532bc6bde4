package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"kitchentales-backend/internal/token"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const claimsKey contextKey = "claims"

// JWTAuth gates a route group behind a bearer token. Requests without an
// Authorization header, or whose token fails verification, are rejected with
// 401 before the handler runs. Decoded claims end up in the request context.
func JWTAuth(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w)
				return
			}

			// "Bearer <token>" — take the second whitespace-separated segment.
			parts := strings.Fields(header)
			if len(parts) < 2 {
				writeUnauthorized(w)
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				writeUnauthorized(w)
				return
			}

			if email, ok := claims["email"].(string); ok {
				log.Printf("🔑 authenticated request for %s", email)
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the decoded token claims, or nil outside a protected route.
func GetClaims(ctx context.Context) jwt.MapClaims {
	claims, _ := ctx.Value(claimsKey).(jwt.MapClaims)
	return claims
}

// GetEmail returns the email claim of the authenticated caller, if present.
func GetEmail(ctx context.Context) string {
	claims := GetClaims(ctx)
	if claims == nil {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"unauthorized access"}`))
}
