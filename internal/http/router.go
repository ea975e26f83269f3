package http

import (
	"net/http"

	"guardian/internal/auth"
	"guardian/internal/config"
	"guardian/internal/http/handler"
	mw "guardian/internal/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(cfg config.Config, svc *auth.Service, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLogger(logger))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{Svc: svc, Cfg: cfg, Log: logger}
	sh := &handler.SessionHandler{Svc: svc, Cfg: cfg, Log: logger}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/request-code", ah.RequestCode)
		r.Post("/redeem", ah.Redeem)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(svc))
			r.Get("/me", sh.Me)
			r.Post("/refresh", sh.Refresh)
			r.Post("/logout", sh.Logout)
		})
	})

	return r
}
