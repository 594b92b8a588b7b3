package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lwestby/hilltally/app/api"
	"github.com/lwestby/hilltally/app/cfg"
	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/ingest"
	"github.com/lwestby/hilltally/app/portal"
	"github.com/lwestby/hilltally/app/scraper"
	"github.com/lwestby/hilltally/app/season"
	"github.com/lwestby/hilltally/app/tasks"
	"github.com/lwestby/hilltally/app/vault"
	"github.com/lwestby/hilltally/app/weather"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Hill Tally server", "version", appCfg.Version)

	store, err := openStore(appCfg)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	portalLoader := portal.NewLoader(appCfg.PortalsDir)
	portalDef, err := portalLoader.Load(appCfg.PortalID)
	if err != nil {
		slog.Error("Failed to load portal definition", "portal", appCfg.PortalID, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded portal definition", "portal", portalDef.Info.ID, "name", portalDef.Info.Name)

	credentialVault := vault.New(appCfg.EncryptionKey)
	resolver := season.NewResolver(store.Seasons(), time.Month(appCfg.SeasonBoundaryMonth))
	reconciler := ingest.NewReconciler(resolver, store.Visits())

	newSession := func(ctx context.Context) (ingest.Extractor, func() error, error) {
		browser, err := scraper.NewChromeBrowser(ctx, appCfg.UserAgent)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		return scraper.NewExtractor(browser, portalDef), browser.Close, nil
	}

	policy := ingest.RetryPolicy{
		MaxAttempts: appCfg.SyncMaxAttempts,
		Delay:       time.Duration(appCfg.SyncRetryDelay) * time.Second,
	}
	orchestrator := ingest.NewOrchestrator(credentialVault, store.Credentials(),
		store.Logs(), reconciler, newSession, policy)

	weatherClient := weather.NewClient(&http.Client{Timeout: 30 * time.Second},
		appCfg.WeatherLatitude, appCfg.WeatherLongitude, appCfg.UserAgent)
	weatherService := weather.NewService(weatherClient, store)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(store.Credentials(), orchestrator, weatherService)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(store, credentialVault, resolver, orchestrator,
		scheduler, appCfg.PortalID)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}

func openStore(appCfg *cfg.Cfg) (database.Store, error) {
	if appCfg.UseMemoryStore {
		slog.Warn("Using in-memory store, data will not survive a restart")
		return database.NewMemoryStore(), nil
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	return database.NewSQLStore(db), nil
}
