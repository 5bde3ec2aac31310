package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/recallhq/recall-engine/pkg/ai"
	"github.com/recallhq/recall-engine/pkg/auth"
	"github.com/recallhq/recall-engine/pkg/config"
	"github.com/recallhq/recall-engine/pkg/database"
	"github.com/recallhq/recall-engine/pkg/handlers"
	"github.com/recallhq/recall-engine/pkg/logging"
	"github.com/recallhq/recall-engine/pkg/middleware"
	"github.com/recallhq/recall-engine/pkg/repositories"
	"github.com/recallhq/recall-engine/pkg/retry"
	"github.com/recallhq/recall-engine/pkg/services"
	"github.com/recallhq/recall-engine/pkg/srs"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification))

	ctx := context.Background()

	logger.Debug("Connecting to database",
		zap.String("dsn", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// golang-migrate needs database/sql, not pgx pool
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	var retryCfg *retry.Config
	if cfg.AI.MaxRetries > 0 {
		retryCfg = retry.DefaultConfig()
		retryCfg.MaxRetries = cfg.AI.MaxRetries
	}
	aiService, err := ai.NewService(cfg.AI.Provider, &ai.ProviderConfig{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.RequestTimeout,
		Retry:   retryCfg,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create AI service", zap.Error(err))
	}

	policy := srs.NewResetPolicy(cfg.SRS.ResetInterval)
	factRepo := repositories.NewFactRepository(db)
	factService := services.NewFactService(factRepo, aiService, aiService, policy, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	factsHandler := handlers.NewFactsHandler(factService, logger)
	factsHandler.RegisterRoutes(mux, authMiddleware)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting recall-engine",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger, or a development logger for local runs.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
