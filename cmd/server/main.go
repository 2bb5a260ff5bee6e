package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/okarpachev/promopulse/internal/aggregate"
	"github.com/okarpachev/promopulse/internal/ai"
	"github.com/okarpachev/promopulse/internal/collector"
	"github.com/okarpachev/promopulse/internal/config"
	"github.com/okarpachev/promopulse/internal/normalize"
	"github.com/okarpachev/promopulse/internal/scraper"
	"github.com/okarpachev/promopulse/internal/server"
	"github.com/okarpachev/promopulse/internal/storage"
)

func main() {
	slog.Info("Starting PromoPulse server...")
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment as-is")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var storeOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		storeOpts = append(storeOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	store, err := storage.New(ctx, cfg.SpreadsheetID, storeOpts...)
	if err != nil {
		slog.Error("Critical error initializing Sheets client", "error", err)
		os.Exit(1)
	}

	aiClient, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("Critical error initializing Gemini client", "error", err)
		os.Exit(1)
	}
	var resolver normalize.ArticleResolver
	if aiClient != nil {
		resolver = aiClient
	}

	sources := scraper.NewRegistry(cfg)
	agg := aggregate.New(store, aggregate.Window{From: cfg.DefaultWindowFrom, To: cfg.DefaultWindowTo})
	col := collector.New(store, sources, agg, resolver, cfg.CheckInterval)

	sched := collector.NewScheduler(col)
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(col, sched, store)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh
		slog.Info("Received signal, shutting down gracefully...", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}()

	slog.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped.")
}
