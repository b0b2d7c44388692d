package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/config"
	httphandler "github.com/windfall/recap_client/internal/handler/http"
	wshandler "github.com/windfall/recap_client/internal/handler/ws"
	"github.com/windfall/recap_client/internal/middleware"
)

// HTTPServer represents the HTTP server.
type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

// NewRouter builds the page-shell routes.
func NewRouter(
	cfg *config.Config,
	log zerolog.Logger,
	healthHandler *httphandler.HealthHandler,
	pageHandler *httphandler.PageHandler,
	quizHandler *httphandler.QuizHandler,
	hub *WebSocketHub,
	wsHandler *wshandler.Handler,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/live", healthHandler.Live)

	// Page events and browser speech reports. Compression would break the upgrade.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, wsHandler)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))

		r.Get("/languages", pageHandler.Languages)

		r.Route("/pages/{page}", func(r chi.Router) {
			r.Get("/", pageHandler.Get)
			r.Post("/summarize", pageHandler.Summarize)
			r.Post("/quiz", pageHandler.GenerateQuiz)
			r.Post("/mode", pageHandler.ToggleMode)
			r.Post("/translate", pageHandler.Translate)

			r.Post("/playback/speak", pageHandler.Speak)
			r.Post("/playback/stop", pageHandler.Stop)
			r.Put("/playback/controls", pageHandler.Controls)

			r.Post("/insights/recommendations", pageHandler.Recommendations)
			r.Post("/insights/clickbait", pageHandler.Clickbait)
		})

		r.Route("/quiz", func(r chi.Router) {
			r.Post("/", quizHandler.Start)
			r.Get("/", quizHandler.Get)
			r.Delete("/", quizHandler.Home)
			r.Put("/answers", quizHandler.Answer)
			r.Post("/submit", quizHandler.Submit)
			r.Get("/review", quizHandler.Review)
			r.Post("/review-again", quizHandler.ReviewAgain)
		})
	})

	return r
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(cfg *config.Config, log zerolog.Logger, handler http.Handler) *HTTPServer {
	server := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &HTTPServer{
		server: server,
		log:    log,
	}
}

// Start starts the HTTP server.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
