package server

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vidview/vidview/internal/auth"
	"github.com/vidview/vidview/internal/database"
	"github.com/vidview/vidview/internal/engage"
	"github.com/vidview/vidview/internal/httputil"
	"github.com/vidview/vidview/internal/languages"
	"github.com/vidview/vidview/internal/plans"
	"github.com/vidview/vidview/internal/playback"
	"github.com/vidview/vidview/internal/ratelimit"
	"github.com/vidview/vidview/internal/validate"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB               database.DBTX
	Pinger           Pinger
	JWTSecret        string
	BaseURL          string
	S3PublicEndpoint string
	Manager          *playback.Manager
	Sources          playback.SourceProvider
	Views            playback.ViewRecorder
	Moderator        *engage.Moderator
}

type Server struct {
	router          chi.Router
	pinger          Pinger
	authHandler     *auth.Handler
	playbackHandler *playback.Handler
	engageHandler   *engage.Handler
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	s := &Server{router: r, pinger: cfg.Pinger}

	if cfg.DB != nil {
		if cfg.JWTSecret == "" {
			log.Fatal("JWT_SECRET is required; set the environment variable")
		}
		s.authHandler = auth.NewHandler(cfg.DB, cfg.JWTSecret)
	}

	if cfg.Manager != nil && cfg.Sources != nil {
		s.playbackHandler = playback.NewHandler(cfg.Manager, cfg.Sources, cfg.Views)
	}

	if cfg.Moderator != nil {
		s.engageHandler = engage.NewHandler(cfg.Moderator)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/languages", s.handleLanguages)
	s.router.Get("/api/plans", s.handlePlans)
	s.router.Get("/api/limits", s.handleLimits)

	if s.authHandler != nil {
		authLimiter := ratelimit.NewLimiter(0.5, 5)
		s.router.Route("/api/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", s.authHandler.Register)
			r.Post("/login", s.authHandler.Login)
		})
	}

	if s.playbackHandler != nil {
		playbackLimiter := ratelimit.NewLimiter(10, 30)
		s.router.Route("/api/playback", func(r chi.Router) {
			r.Use(playbackLimiter.Middleware)
			if s.authHandler != nil {
				r.Use(s.authHandler.Middleware)
			}
			s.playbackHandler.Routes(r)
		})
	}

	if s.engageHandler != nil && s.authHandler != nil {
		commentLimiter := ratelimit.NewLimiter(2, 10)
		s.router.Route("/api/videos/{videoID}/comments", func(r chi.Router) {
			r.Use(commentLimiter.Middleware)
			s.engageHandler.Routes(r, s.authHandler.Middleware)
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"languages": languages.TargetLanguages(),
	})
}

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"plans": plans.All(),
	})
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"limits": validate.FieldLimits(),
	})
}
