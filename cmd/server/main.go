package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sashko-guz/imhumane/internal/captcha"
	"github.com/sashko-guz/imhumane/internal/config"
	"github.com/sashko-guz/imhumane/internal/engine"
	"github.com/sashko-guz/imhumane/internal/httpapi"
	"github.com/sashko-guz/imhumane/internal/logger"
	"github.com/sashko-guz/imhumane/internal/mirror"
	"github.com/sashko-guz/imhumane/internal/watcher"
)

var log = logger.Component("Server")

func main() {
	logger.SetOutput(os.Stderr)
	logger.SetFlags(0)

	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	cfg := config.Load()
	logger.InitFromEnv()

	log.Infof("starting challenge engine…")
	log.Infof("images directory: %s", cfg.ImagesDirectory)

	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	if cfg.Mirror.Enabled {
		if err := runMirror(cfg); err != nil {
			log.Errorf("collection mirror sync failed: %v", err)
			os.Exit(1)
		}
	}

	e, err := engine.New(captcha.Config{
		BufferSize: cfg.BufferSize,
		ImageSize:  cfg.ImageSize,
		GapSize:    cfg.GapSize,
		GridLength: cfg.GridLength,
	}, cfg.AnswerTTL, cfg.SourceByteBudget)
	if err != nil {
		log.Errorf("failed to construct engine: %v", err)
		os.Exit(1)
	}

	if err := e.ScanForCollections(cfg.ImagesDirectory); err != nil {
		log.Errorf("initial scan failed: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < cfg.Threads; i++ {
		go e.RunGenerator(ctx)
	}
	log.Infof("%d generator worker(s) started", cfg.Threads)

	if cfg.Watcher.Enabled {
		w, err := watcher.New(cfg.ImagesDirectory, cfg.Watcher.Debounce, func() error {
			return e.ScanForCollections(cfg.ImagesDirectory)
		})
		if err != nil {
			log.Warnf("collection watcher disabled, failed to start: %v", err)
		} else {
			go w.Run(ctx)
			log.Infof("collection watcher started")
		}
	}

	router := httpapi.NewRouter(e)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go handleShutdown(srv, cancel)

	log.Infof("listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("server failed: %v", err)
		os.Exit(1)
	}
}

func runMirror(cfg *config.Config) error {
	m, err := mirror.New(mirror.Config{
		Region:      cfg.Mirror.Region,
		AccessKey:   cfg.Mirror.AccessKey,
		SecretKey:   cfg.Mirror.SecretKey,
		Bucket:      cfg.Mirror.Bucket,
		BaseURL:     cfg.Mirror.BaseURL,
		Prefix:      cfg.Mirror.Prefix,
		ManifestDir: cfg.Mirror.ManifestDir,
		ManifestTTL: cfg.Mirror.ManifestTTL,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return m.Sync(ctx, cfg.ImagesDirectory)
}

func handleShutdown(srv *http.Server, cancelGenerators context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Infof("shutting down…")
	cancelGenerators()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("graceful shutdown failed: %v", err)
	}
}
