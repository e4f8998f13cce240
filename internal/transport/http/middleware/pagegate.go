package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/transport/http/cookie"
)

var (
	authPages      = []string{"/signin", "/signup", "/verification"}
	protectedPages = []string{"/profile", "/dashboard"}
	ungated        = []string{"/api/", "/_next/static", "/_next/image", "/favicon.ico"}
)

// PageGate redirects page requests based on the session cookie. Signed-in
// visitors are sent away from auth pages; anonymous visitors are sent to
// /signin from protected pages.
func PageGate(sessions SessionResolver, jar *cookie.Jar) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if hasAnyPrefix(path, ungated) {
				next.ServeHTTP(w, r)
				return
			}
			token := jar.Read(r)

			if matchesPage(path, authPages) && token != "" {
				a, err := sessions.Resolve(r.Context(), token)
				switch {
				case err == nil:
					http.Redirect(w, r, homeFor(a), http.StatusFound)
					return
				case errors.Is(err, domain.ErrUnauthorized):
					jar.Clear(w, r)
				default:
					slog.WarnContext(r.Context(), "page gate session lookup", "err", err)
					jar.Clear(w, r)
					http.Redirect(w, r, "/signin", http.StatusFound)
					return
				}
			}

			if matchesPage(path, protectedPages) && token == "" {
				http.Redirect(w, r, "/signin", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func homeFor(a *domain.Account) string {
	if a.IsAdmin() {
		return "/dashboard"
	}
	return "/profile"
}

// matchesPage reports whether path is one of pages or below one of them.
func matchesPage(path string, pages []string) bool {
	for _, p := range pages {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
