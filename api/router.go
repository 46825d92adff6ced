// Package api exposes the match service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/matches"
)

type Options struct {
	Service MatchService
	// Profiles backs the per-request dataloaders. Nil disables them.
	Profiles    matches.ProfileRepository
	JWTSecret   []byte
	CORSOrigins []string
	Log         *zap.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	h := &handlers{svc: opts.Service, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(opts.JWTSecret))
		if opts.Profiles != nil {
			r.Use(withLoaders(opts.Profiles))
		}

		r.Get("/me", h.me)
		r.Get("/matches", h.listMatches)
		r.Get("/matches/mutual", h.listMutual)
		r.Get("/compatibility/{peerID}", h.compatibility)
		r.Post("/interests/{targetID}", h.submitInterest)
	})

	return cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

// withLoaders gives every request a fresh set of dataloaders.
func withLoaders(profiles matches.ProfileRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := matches.WithLoaders(r.Context(), matches.NewLoaders(profiles))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger writes one line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
