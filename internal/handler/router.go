package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/workdeck/workdeck-api/internal/config"
)

// NewRouter assembles the HTTP surface: common middleware, the auth
// and user endpoints, the health check and static uploads.
func NewRouter(
	cfg *config.Config,
	logger *zerolog.Logger,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	requireAuth func(http.Handler) http.Handler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(hlog.NewHandler(*logger))
	r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(req).Info().
			Str("method", req.Method).
			Stringer("url", req.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Use(httprate.LimitByIP(cfg.RateLimit.RequestLimit, cfg.RateLimit.Window))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, response{"status": "OK", "message": "Server is running"})
		})

		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(cfg.RateLimit.AuthRequestLimit, cfg.RateLimit.Window))
			r.Mount("/auth", authHandler.Routes(requireAuth))
		})

		r.Mount("/users", userHandler.Routes(requireAuth))
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	return r
}
