package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/api"
	"github.com/taxdesk/gst-recon/internal/config"
	"github.com/taxdesk/gst-recon/internal/parser"
	"github.com/taxdesk/gst-recon/internal/recon"
	"github.com/taxdesk/gst-recon/internal/report"
	"github.com/taxdesk/gst-recon/internal/repository"
	"github.com/taxdesk/gst-recon/internal/service"
	"github.com/taxdesk/gst-recon/pkg/database"
	"github.com/taxdesk/gst-recon/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ITC reconciliation service",
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	uploadRepo := repository.NewUploadRepository(db.DB, logger)
	entryRepo := repository.NewEntryRepository(db.DB, logger)
	purchaseRepo := repository.NewPurchaseRepository(db.DB, logger)

	engine, err := recon.NewEngine(reconConfig(cfg.Recon), logger)
	if err != nil {
		logger.Fatal("Failed to initialize reconciliation engine", zap.Error(err))
	}

	svc := service.NewReconciliationService(
		service.Config{MaxEntriesPerUpload: cfg.Recon.MaxEntriesPerUpload},
		db,
		parser.NewParser(logger),
		engine,
		uploadRepo,
		entryRepo,
		purchaseRepo,
		logger,
	)

	handler := api.NewHandler(svc, report.NewExporter(logger), logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "gst-recon",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	handler.Register(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// reconConfig converts file configuration into engine configuration.
func reconConfig(rc config.ReconConfig) recon.Config {
	return recon.Config{
		AmountTolerance: decimal.NewFromFloat(rc.AmountTolerance),
		Fuzzy: recon.FuzzyConfig{
			InvoiceWeight:  rc.Fuzzy.InvoiceWeight,
			DateWeight:     rc.Fuzzy.DateWeight,
			ValueWeight:    rc.Fuzzy.ValueWeight,
			VendorWeight:   rc.Fuzzy.VendorWeight,
			DateWindowDays: rc.Fuzzy.DateWindowDays,
			MinScore:       rc.Fuzzy.MinScore,
			MaxSuggestions: rc.Fuzzy.MaxSuggestions,
			MaxCandidates:  rc.Fuzzy.MaxCandidates,
		},
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
