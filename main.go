package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ezirisk/ezirisk-engine/pkg/adapters/artifacts"
	"github.com/ezirisk/ezirisk-engine/pkg/adapters/document"
	"github.com/ezirisk/ezirisk-engine/pkg/auth"
	"github.com/ezirisk/ezirisk-engine/pkg/config"
	"github.com/ezirisk/ezirisk-engine/pkg/database"
	"github.com/ezirisk/ezirisk-engine/pkg/handlers"
	"github.com/ezirisk/ezirisk-engine/pkg/logging"
	"github.com/ezirisk/ezirisk-engine/pkg/middleware"
	"github.com/ezirisk/ezirisk-engine/pkg/repositories"
	"github.com/ezirisk/ezirisk-engine/pkg/ruleset"
	"github.com/ezirisk/ezirisk-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", cfg.Database.Host),
		zap.String("migrations_path", cfg.MigrationsPath))

	ctx := context.Background()

	// Migrations run over database/sql; the application pool is pgx-native.
	// Connection errors are sanitized because they can echo the credentials.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection",
			zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations",
			zap.String("error", logging.SanitizeError(err)))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	tables, err := ruleset.Load()
	if err != nil {
		logger.Fatal("Failed to load rule tables", zap.Error(err))
	}

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)
	tenantMiddleware := handlers.TenantMiddleware(database.WithTenantContext(db, logger))

	// Repositories
	surveyRepo := repositories.NewSurveyRepository()
	actionRepo := repositories.NewActionRepository()
	buildingRepo := repositories.NewBuildingRepository()
	referenceRepo := repositories.NewReferenceRepository()

	// Services
	severityEngine := services.NewSeverityEngine()
	migrator := services.NewLegacyScoreMigrator(severityEngine)
	scoring := services.NewScoringService(tables)
	readiness := services.NewReadinessService(tables, logger)
	surveyService := services.NewSurveyService(surveyRepo, logger)
	actionService := services.NewActionService(actionRepo, surveyRepo, severityEngine, logger)
	buildingService := services.NewBuildingService(buildingRepo, surveyRepo, logger)
	issuanceService := services.NewIssuanceService(
		surveyRepo, actionRepo, buildingRepo, referenceRepo,
		readiness, migrator, scoring, severityEngine,
		document.NewRenderer(logger),
		artifacts.NewLocalStore(cfg.Issuance.ArtifactDir),
		logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, db, logger)
	healthHandler.RegisterRoutes(mux)

	surveyHandler := handlers.NewSurveyHandler(surveyService, logger)
	surveyHandler.RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	actionHandler := handlers.NewActionHandler(actionService, logger)
	actionHandler.RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	buildingHandler := handlers.NewBuildingHandler(buildingService, logger)
	buildingHandler.RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	reportHandler := handlers.NewReportHandler(
		surveyService, actionService, buildingService,
		readiness, scoring, issuanceService, logger)
	reportHandler.RegisterRoutes(mux, authMiddleware, tenantMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	logger.Info("Starting ezirisk-engine",
		zap.String("port", cfg.Port),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(cfg.BindAddr+":"+cfg.Port, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
