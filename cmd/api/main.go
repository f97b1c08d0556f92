package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/clubcashin/credit-service/internal/config"
	"github.com/clubcashin/credit-service/internal/handler"
	"github.com/clubcashin/credit-service/internal/integrations/banguat"
	"github.com/clubcashin/credit-service/internal/integrations/docai"
	"github.com/clubcashin/credit-service/internal/integrations/renap"
	"github.com/clubcashin/credit-service/internal/repository"
	"github.com/clubcashin/credit-service/internal/service"
	"github.com/clubcashin/credit-service/internal/utils/email"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load .env if present, then configuration
	if err := godotenv.Load(); err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	analyzer := docai.NewAnalyzer(cfg, logger)
	notifier := email.NewSender(cfg, logger)
	svc := service.NewService(repo, analyzer, notifier, logger, cfg)
	identityClient := renap.NewClient(cfg, logger)
	rateClient := banguat.NewClient(cfg, logger)
	h := handler.NewHandler(svc, identityClient, rateClient, logger)

	// Schedule the extraction poll pass
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.PollSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := svc.PollCreditRecords(ctx); err != nil {
			logger.Errorf("Scheduled poll pass failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule poll pass: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := handler.NewRouter(h, cfg, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
