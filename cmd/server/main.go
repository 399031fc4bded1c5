package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/artweave/internal/api"
	"github.com/dgallion1/artweave/internal/config"
	"github.com/dgallion1/artweave/internal/curate"
	"github.com/dgallion1/artweave/internal/imagesearch"
	"github.com/dgallion1/artweave/internal/inject"
	"github.com/dgallion1/artweave/internal/pipeline"
	"github.com/dgallion1/artweave/internal/slotgen"
	"github.com/dgallion1/artweave/internal/xai"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	prof := config.DefaultProfile()
	if cfg.ProfilePath != "" {
		loaded, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			if errors.Is(err, config.ErrProfileNotFound) {
				log.Error("article profile not found", "path", cfg.ProfilePath)
			} else {
				log.Error("invalid article profile", "path", cfg.ProfilePath, "error", err)
			}
			os.Exit(1)
		}
		prof = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	grok := xai.NewClient(cfg.XAIAPIKey, cfg.XAIModel, cfg.XAIBaseURL, cfg.XAITimeout)
	search := imagesearch.NewClient(cfg.SearchURL, cfg.SearchAPIKey)

	planner := slotgen.NewGrokPlanner(grok, prof.MaxSlots)
	judge := curate.NewGrokJudge(grok)
	injector := inject.NewInjector(log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, prof, planner, search, judge, injector, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, grok, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		grok.Close()
		search.Close()
	}()

	log.Info("starting artweave", "port", cfg.Port, "model", cfg.XAIModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
