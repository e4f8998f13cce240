package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/transport/http/cookie"
)

type contextKey string

const accountKey contextKey = "account"

// SessionResolver maps a session token to its account.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Account, error)
}

// Auth returns middleware that resolves the session cookie and injects the
// account into the request context.
func Auth(sessions SessionResolver, jar *cookie.Jar) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := jar.Read(r)
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			a, err := sessions.Resolve(r.Context(), token)
			if errors.Is(err, domain.ErrUnauthorized) {
				writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if err != nil {
				slog.ErrorContext(r.Context(), "resolve session", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "An unexpected error occurred")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), a)))
		})
	}
}

func WithAccount(ctx context.Context, a *domain.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromContext returns the account set by Auth.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	a, ok := ctx.Value(accountKey).(*domain.Account)
	return a, ok && a != nil
}
