package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tenancy-backend/internal/api/routes"
	"tenancy-backend/internal/config"
	"tenancy-backend/internal/database"
	"tenancy-backend/internal/email"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "tenancy-backend/docs" // This is needed for swag
)

//	@title			Tenancy Backend API
//	@version		1.0
//	@description	Tenants, tenant users and invitations for a multi-tenant SaaS backend.

//	@contact.name	API Support
//	@contact.email	support@example.com

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:8000
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	// Set up logging
	logger.Setup(cfg.LogLevel)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, nil)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New(cfg.MetricsPrefix, nil)

	var mailer email.Client
	if loops, err := email.NewLoopsClient(cfg.LoopsBaseURL, cfg.LoopsAPIKey); err == nil {
		mailer = loops
	} else {
		logrus.WithError(err).Warn("Loops is not configured, emails will only be logged")
		mailer = email.NewLogClient()
	}

	dispatcher := email.NewDispatcher(cfg.EmailWorkers, cfg.EmailQueueSize, email.WithMetrics(m))
	dispatcher.Start(context.Background())

	// Initialize router
	router := routes.SetupRoutes(routes.Dependencies{
		DB:      db,
		Config:  cfg,
		Queue:   dispatcher,
		Mailer:  mailer,
		Metrics: m,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}

	// drain queued emails after the last request has finished
	dispatcher.Stop()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
