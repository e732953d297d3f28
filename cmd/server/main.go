package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/chainview/internal/broker"
	"github.com/dgnsrekt/chainview/internal/config"
	"github.com/dgnsrekt/chainview/internal/market"
	"github.com/dgnsrekt/chainview/internal/metrics"
	"github.com/dgnsrekt/chainview/internal/server"
	"github.com/dgnsrekt/chainview/internal/snapshot"
	"github.com/dgnsrekt/chainview/internal/warmer"
)

func main() {
	os.Exit(run())
}

func newLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if logCfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}

	if logCfg.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logCfg.Level)); err != nil {
			return nil, fmt.Errorf("parsing log level %q: %w", logCfg.Level, err)
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	return zapConfig.Build()
}

func run() int {
	configPath := flag.String("config", "", "path to config file (default: ./configs/chainview.yaml)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	brokerCfg, err := broker.LoadConfig()
	if err != nil {
		logger.Error("failed to load broker config", zap.Error(err))
		return 1
	}
	if err := brokerCfg.Validate(); err != nil {
		logger.Error("invalid broker config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("staticDir", cfg.Server.StaticDir),
		zap.String("brokerURL", brokerCfg.BaseURL),
		zap.Bool("accountConfigured", brokerCfg.AccountID != ""),
		zap.Duration("quoteTTL", cfg.Cache.QuoteTTL),
		zap.Duration("chainTTL", cfg.Cache.ChainTTL),
		zap.Duration("expirationsTTL", cfg.Cache.ExpirationsTTL),
		zap.Duration("bufferRetention", cfg.Buffer.Retention),
		zap.Bool("warmEnabled", cfg.Warm.Enabled),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	client := broker.NewClient(brokerCfg, m, logger.Named("broker"))
	calendar := market.NewCalendar(cfg.Location())

	engine := snapshot.New(client, snapshot.Options{
		AccountID:      brokerCfg.AccountID,
		QuoteTTL:       cfg.Cache.QuoteTTL,
		ChainTTL:       cfg.Cache.ChainTTL,
		ExpirationsTTL: cfg.Cache.ExpirationsTTL,
		Retention:      cfg.Buffer.Retention,
		Capacity:       cfg.Buffer.Capacity,
		HotLookback:    cfg.Analytics.HotLookback,
		HotTop:         cfg.Analytics.HotTop,
		Location:       cfg.Location(),
		Calendar:       calendar,
		Metrics:        m,
	}, logger.Named("snapshot"))

	srv := server.NewServer(engine, logger)
	router, err := server.NewRouter(srv, server.RouterOptions{
		StaticDir: cfg.Server.StaticDir,
		Gatherer:  registry,
	}, logger)
	if err != nil {
		logger.Error("failed to create router", zap.Error(err))
		return 1
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Warm.Enabled {
		keys, err := config.ParseWarmKeys(cfg.Warm.Keys)
		if err != nil {
			logger.Error("invalid warm keys", zap.Error(err))
			return 1
		}
		w := warmer.New(engine, calendar, keys, cfg.Warm.Interval, logger.Named("warmer"))
		go w.Run(ctx)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
		exitCode = 1
	}

	logger.Info("shutting down server...")

	// Stop the warmer before draining in-flight requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return exitCode
}
