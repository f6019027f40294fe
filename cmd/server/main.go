package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/ai"
	"github.com/Shivam-2310/ShortAI/internal/analytics"
	"github.com/Shivam-2310/ShortAI/internal/annotation"
	"github.com/Shivam-2310/ShortAI/internal/cache"
	"github.com/Shivam-2310/ShortAI/internal/cleanup"
	"github.com/Shivam-2310/ShortAI/internal/config"
	"github.com/Shivam-2310/ShortAI/internal/db"
	"github.com/Shivam-2310/ShortAI/internal/geo"
	"github.com/Shivam-2310/ShortAI/internal/handlers"
	"github.com/Shivam-2310/ShortAI/internal/metadata"
	"github.com/Shivam-2310/ShortAI/internal/ratelimit"
	"github.com/Shivam-2310/ShortAI/internal/shortener"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	setupLogging(cfg)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup, cache and rate limiting degrade")
	}
	cancel()

	geoResolver, err := geo.New(cfg.GeoIPDBPath, cfg.GeoIPAPIURL)
	if err != nil {
		log.Warn().Err(err).Msg("geoip database unavailable, falling back to HTTP lookups")
		geoResolver, _ = geo.New("", cfg.GeoIPAPIURL)
	}
	defer geoResolver.Close()

	annotations := annotation.NewStore(database, cfg.AnnotationTTL)
	hotCache := cache.New(redisClient, cfg.CacheTTL)
	limiter := ratelimit.New(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
	fetcher := metadata.NewFetcher(cfg.MetadataTimeout, cfg.MetadataMaxBytes)
	aiClient := ai.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, annotations)
	tracker := analytics.NewTracker(database, geoResolver, cfg.TrackerWorkers, cfg.TrackerQueueSize)
	sweeper := cleanup.NewSweeper(database, annotations)

	svc := &shortener.Service{
		DB:       database,
		Cache:    hotCache,
		Metadata: fetcher,
		AI:       aiClient,
		BaseURL:  cfg.BaseURL,
	}

	router := handlers.NewRouter(
		&handlers.LinkHandler{DB: database, Shortener: svc, AI: aiClient},
		&handlers.RedirectHandler{Shortener: svc, Tracker: tracker},
		limiter,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Str("base_url", cfg.BaseURL).Msg("shortai listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	sweeper.Shutdown()
	tracker.Shutdown()
	log.Info().Msg("goodbye")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
