package httptransport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"curio/pkg/domain"
)

type contextKeyAccountID struct{}

// GetAccountID retrieves the authenticated caller from the context. Zero
// value when the request did not pass RequireAuth.
func GetAccountID(ctx context.Context) domain.AccountID {
	id, ok := ctx.Value(contextKeyAccountID{}).(domain.AccountID)
	if !ok {
		return domain.AccountID{}
	}
	return id
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and resolves the caller principal
// from the subject claim.
func RequireAuth(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			claims := jwt.RegisteredClaims{}
			parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return signingKey, nil
			})
			if err != nil || !parsed.Valid {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token", "error", err)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			account, err := domain.ParseAccountID(claims.Subject)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - bad subject", "error", err)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token subject is not an account id")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyAccountID{}, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
