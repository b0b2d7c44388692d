package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/windfall/recap_client/internal/client"
	"github.com/windfall/recap_client/internal/config"
	"github.com/windfall/recap_client/internal/handler/http"
	"github.com/windfall/recap_client/internal/handler/ws"
	"github.com/windfall/recap_client/internal/logger"
	"github.com/windfall/recap_client/internal/playback"
	"github.com/windfall/recap_client/internal/server"
	"github.com/windfall/recap_client/internal/service"
	"github.com/windfall/recap_client/internal/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Str("backend", cfg.BackendBaseURL).Msg("Starting recap_client")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backendClient := client.NewBackendClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	// Page events and browser speech commands
	hub := server.NewWebSocketHub(logger.Component(log, "ws"))
	go hub.Run(ctx)

	// Initialize Redis client
	var redisClient *client.RedisClient
	if cfg.RedisURL != "" {
		redisClient, err = client.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Redis client")
		} else {
			log.Info().Msg("Redis client initialized")
		}
	}

	var lease playback.Lease = playback.NewMemoryLease(cfg.PlaybackLeaseTTL)
	if redisClient != nil {
		lease = playback.NewRedisLease(redisClient, cfg.PlaybackLeaseTTL)
	}

	// Speech engine
	engineLog := logger.Component(log, "speech")
	var (
		engine       playback.Engine
		remoteEngine *playback.RemoteEngine
		gcsClient    *client.StorageClient
	)
	if cfg.SpeechEngine == "remote" {
		remoteEngine, gcsClient = newRemoteEngine(ctx, cfg, hub, engineLog)
	}
	if remoteEngine != nil {
		engine = remoteEngine
		log.Info().Str("audio_store", cfg.AudioStore).Msg("Remote speech engine initialized")
	} else {
		engine = playback.NewSimulatedEngine(playback.DefaultWordsPerMinute, engineLog)
		log.Info().Msg("Simulated speech engine initialized")
	}

	// Initialize services
	translationService := service.NewTranslationService(backendClient, cfg.BaseLanguage, logger.Component(log, "translation"))
	insightService := service.NewInsightService(backendClient, logger.Component(log, "insights"))
	pageService := service.NewPageService(service.PageDeps{
		Backend:     backendClient,
		Translation: translationService,
		Insights:    insightService,
		Validator:   validator.New(),
		Engine:      engine,
		Lease:       lease,
		Voice: func(language string) string {
			return client.VoiceFor(language, cfg.SpeechDefaultVoice)
		},
		Publisher: hub,
	}, logger.Component(log, "pages"))
	quizController := service.NewQuizController(backendClient, logger.Component(log, "quiz"))

	// Initialize handlers
	checks := map[string]http.Check{}
	if redisClient != nil {
		checks["redis"] = redisClient.Ping
	}
	healthHandler := http.NewHealthHandler(checks)
	pageHandler := http.NewPageHandler(log, pageService, translationService, cfg.MaxUploadSize)
	quizHandler := http.NewQuizHandler(log, quizController)

	var speech ws.SpeechCallbacks
	if remoteEngine != nil {
		speech = remoteEngine
	}
	wsHandler := ws.NewHandler(logger.Component(log, "ws"), speech)

	// Initialize HTTP server
	router := server.NewRouter(cfg, log, healthHandler, pageHandler, quizHandler, hub, wsHandler)
	httpServer := server.NewHTTPServer(cfg, log, router)

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	log.Info().
		Str("http_addr", cfg.HTTPAddress()).
		Strs("pages", pageService.Names()).
		Msg("Servers started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Int("ws_clients", hub.ClientCount()).Msg("Shutting down servers...")
	healthHandler.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	pageService.StopAll(shutdownCtx)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	cancel()

	// Close clients
	if redisClient != nil {
		redisClient.Close()
	}
	if gcsClient != nil {
		gcsClient.Close()
	}

	log.Info().Msg("Server stopped")
}

// newRemoteEngine wires Azure synthesis to the configured audio store. It
// returns a nil engine when credentials are missing so the caller can fall
// back to the simulated one.
func newRemoteEngine(ctx context.Context, cfg *config.Config, hub *server.WebSocketHub, log zerolog.Logger) (*playback.RemoteEngine, *client.StorageClient) {
	if !cfg.HasAzureSpeech() {
		log.Warn().Msg("Azure Speech configuration missing, using simulated speech")
		return nil, nil
	}
	synth := client.NewAzureSpeechClient(cfg.AzureAISpeechKey, cfg.AzureServiceRegion)

	switch cfg.AudioStore {
	case "gcs":
		if cfg.GCSBucketName == "" {
			log.Warn().Msg("GCS_BUCKET_NAME not set, using simulated speech")
			return nil, nil
		}
		store, err := client.NewStorageClient(ctx, cfg.GCSBucketName)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize GCS client")
			return nil, nil
		}
		return playback.NewRemoteEngine(synth, store, hub, log), store

	default:
		if !cfg.HasCloudflare() {
			log.Warn().Msg("Cloudflare configuration missing, using simulated speech")
			return nil, nil
		}
		store, err := client.NewCloudflareClient(ctx,
			cfg.CloudflareAccessKeyID,
			cfg.CloudflareSecretKey,
			cfg.CloudflareR2Endpoint,
			cfg.CloudflareBucketName,
			cfg.CloudflarePublicURL,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize Cloudflare client")
			return nil, nil
		}
		return playback.NewRemoteEngine(synth, store, hub, log), nil
	}
}
