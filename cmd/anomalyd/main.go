package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/precip-anomaly/internal/adapter/http"
	"github.com/couchcryptid/precip-anomaly/internal/adapter/hadukp"
	kafkaadapter "github.com/couchcryptid/precip-anomaly/internal/adapter/kafka"
	"github.com/couchcryptid/precip-anomaly/internal/config"
	"github.com/couchcryptid/precip-anomaly/internal/observability"
	"github.com/couchcryptid/precip-anomaly/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// HADUKP_DATA_DIR switches to the offline directory source.
	var source hadukp.Fetcher
	if cfg.HadUKPDataDir != "" {
		source = hadukp.NewDirSource(cfg.HadUKPDataDir)
		logger.Info("reading hadukp files from directory", "dir", cfg.HadUKPDataDir)
	} else {
		source = hadukp.NewClient(cfg.HadUKPBaseURL, cfg.HadUKPTimeout, metrics, logger)
		logger.Info("fetching hadukp files over http", "base_url", cfg.HadUKPBaseURL, "timeout", cfg.HadUKPTimeout)
	}
	loader := hadukp.NewCachedLoader(source, cfg.CacheSize, metrics, logger, hadukp.WithTTL(cfg.CacheTTL))

	// Publishing is feature-flagged via PUBLISH_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, metrics, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(loader, pipeline.NewScorer(logger), publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	if cfg.WarmOnStart {
		go func() {
			if err := p.Warm(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("warm-up error", "error", err)
			}
		}()
	}

	// SIGHUP drops the cache and reloads every region.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := p.Refresh(ctx); err != nil {
					logger.Error("refresh failed", "error", err)
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
