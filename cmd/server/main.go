package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lexshield/lifecycle-engine/internal/audit"
	"github.com/lexshield/lifecycle-engine/internal/config"
	"github.com/lexshield/lifecycle-engine/internal/handlers"
	"github.com/lexshield/lifecycle-engine/internal/lifecycle"
	"github.com/lexshield/lifecycle-engine/internal/metrics"
	"github.com/lexshield/lifecycle-engine/internal/rules"
)

var version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting case lifecycle engine", zap.String("version", version))

	// Rule tables: file-based when configured, built-in otherwise. Any
	// malformed rule fails startup here.
	var tables *rules.Tables
	if cfg.Engine.RulesFile != "" {
		tables, err = rules.Load(cfg.Engine.RulesFile)
		if err != nil {
			logger.Fatal("Failed to load rule tables", zap.Error(err))
		}
		logger.Info("Rule tables loaded", zap.String("rules_file", cfg.Engine.RulesFile))
	} else {
		tables, err = rules.Default()
		if err != nil {
			logger.Fatal("Failed to build default rule tables", zap.Error(err))
		}
		logger.Info("Using built-in rule tables")
	}

	validator := lifecycle.NewTransitionValidator(tables.Transitions, tables.CaseTypes,
		lifecycle.WithLogger(logger))

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	auditLogger := audit.NewLogger(cfg.Audit, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Audit.Enabled {
		if err := auditLogger.Start(ctx); err != nil {
			logger.Fatal("Failed to start audit logger", zap.Error(err))
		}
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := handlers.NewLifecycleHandler(validator, auditLogger, collector, logger,
		cfg.Engine.IntrospectionCacheTTL)
	handler.RegisterRoutes(router)

	if cfg.Monitoring.EnableMetrics {
		router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if cfg.Audit.Enabled {
		if err := auditLogger.Stop(shutdownCtx); err != nil {
			logger.Error("Audit logger shutdown failed", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
}
