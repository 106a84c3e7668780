package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tcregan1/TempoTrivia/internal/config"
	"github.com/tcregan1/TempoTrivia/internal/dbconfig"
	"github.com/tcregan1/TempoTrivia/internal/match/events"
	"github.com/tcregan1/TempoTrivia/internal/match/game"
	"github.com/tcregan1/TempoTrivia/internal/match/gateway"
	"github.com/tcregan1/TempoTrivia/internal/match/room"
	"github.com/tcregan1/TempoTrivia/internal/songs"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	dbCfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	var publisher room.Publisher
	if cfg.NATS.Enabled {
		feedCfg := events.DefaultConfig()
		feedCfg.URL = cfg.NATS.URL
		feed, err := events.NewPublisher(feedCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect match event feed")
		}
		defer feed.Close()
		publisher = feed
	}

	rooms := room.NewManager(cfg.Game.TotalRounds, publisher)
	catalog := songs.NewRepository(pool)
	previews := songs.NewPreviewClient()
	svc := game.NewService(rooms, catalog, previews, clockwork.NewRealClock())

	gwCfg := gateway.DefaultConfig()
	gwCfg.CheckOrigin = originChecker(cfg.Server.AllowedOrigins)
	handler := gateway.NewHandler(rooms, svc, gwCfg)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      corsWrapper.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("total_rounds", cfg.Game.TotalRounds).
			Bool("event_feed", cfg.NATS.Enabled).
			Msg("match server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("match server shutdown complete")
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}
