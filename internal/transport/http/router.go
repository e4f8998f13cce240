package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/landing-auth/internal/application/account"
	"github.com/landing-auth/internal/application/auth"
	"github.com/landing-auth/internal/application/document"
	"github.com/landing-auth/internal/application/session"
	"github.com/landing-auth/internal/config"
	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/transport/http/cookie"
	"github.com/landing-auth/internal/transport/http/handler"
	appmiddleware "github.com/landing-auth/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. The returned stop
// function releases background resources.
func NewRouter(cfg *config.Config, deps *Deps, logger *slog.Logger) (http.Handler, func(), error) {
	clientIP, err := appmiddleware.NewClientIP(cfg.TrustedProxies)
	if err != nil {
		return nil, nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(logger, clientIP))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jar := cookie.New(cfg.SessionCookieName, cfg.SessionExpiry)

	sessionSvc := session.NewService(session.ServiceDeps{
		Accounts:   deps.Accounts,
		Identities: deps.Identities,
		Tokens:     deps.Tokens,
		Verifier:   deps.Verifier,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		Accounts:    deps.Accounts,
		Sessions:    sessionSvc,
		Mailer:      deps.Mailer,
		Throttle:    deps.Throttle,
		CodeTTL:     cfg.OTPExpiry,
		MaxAttempts: cfg.OTPMaxAttempts,
	})
	accountSvc := account.NewService(deps.Accounts, deps.Identities, deps.Objects)
	documentSvc := document.NewService(deps.Documents)

	frontend, err := handler.NewFrontendProxy(cfg.FrontendURL)
	if err != nil {
		return nil, nil, err
	}

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, jar)
	sessionH := handler.NewSessionHandler(sessionSvc, jar)
	accountH := handler.NewAccountHandler(accountSvc, jar)
	documentH := handler.NewDocumentHandler(documentSvc)

	// 5 requests/second, burst of 10, on the code endpoints.
	otpRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10, clientIP)
	authMw := appmiddleware.Auth(sessionSvc, jar)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.Route("/auth", func(r chi.Router) {
			r.With(otpRL.Limit).Post("/verification", authH.Verification)
			r.With(otpRL.Limit).Post("/signup", authH.Signup)
			r.With(otpRL.Limit).Post("/verify-otp", authH.VerifyOTP)
			r.Post("/session", sessionH.Create)
			r.Get("/session", sessionH.Current)
			r.Post("/logout", sessionH.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Delete("/user/delete", accountH.Delete)
			r.Post("/user/image", accountH.UploadImage)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/db/{collection}", documentH.List)
				r.Post("/db/{collection}", documentH.Create)
				r.Get("/db/{collection}/{id}", documentH.Get)
				r.Patch("/db/{collection}/{id}", documentH.Update)
				r.Put("/db/{collection}/{id}", documentH.Update)
				r.Delete("/db/{collection}/{id}", documentH.Delete)
			})
		})

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Not found"}` + "\n"))
		})
	})

	r.With(appmiddleware.PageGate(sessionSvc, jar)).Handle("/*", frontend)

	return r, otpRL.Stop, nil
}
