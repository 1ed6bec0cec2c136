package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/unifieddata-ai/canon-engine/pkg/adapters/schemadoc"
	"github.com/unifieddata-ai/canon-engine/pkg/config"
	"github.com/unifieddata-ai/canon-engine/pkg/database"
	"github.com/unifieddata-ai/canon-engine/pkg/handlers"
	"github.com/unifieddata-ai/canon-engine/pkg/llm"
	"github.com/unifieddata-ai/canon-engine/pkg/repositories"
	"github.com/unifieddata-ai/canon-engine/pkg/retry"
	"github.com/unifieddata-ai/canon-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Database: %s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	log.Printf("  LLM provider: %s (model: %s)", cfg.LLM.Provider, cfg.LLM.Model)

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Migrations run over a database/sql handle borrowed from the pool.
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		log.Fatalf("Failed to release migration connection: %v", err)
	}

	factory := llm.NewProviderFactory(llm.ProviderConfig{
		Provider:  cfg.LLM.Provider,
		Endpoint:  cfg.LLM.Endpoint,
		Model:     cfg.LLM.Model,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
		Retry:     retry.DefaultConfig(),
	}, logger)
	llmClient, err := factory.NewClient()
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	connectorRepo := repositories.NewConnectorRepository()
	reviewRepo := repositories.NewReviewRepository()
	canonicalRepo := repositories.NewCanonicalRepository()

	manifestBuilder := services.NewManifestBuilder(schemadoc.DefaultRegistry(), logger)
	clustering := services.NewFieldClusteringService(llmClient, logger)
	classifier := services.NewRelationshipClassifier(llmClient, logger)
	buildService := services.NewGraphBuildService(
		connectorRepo,
		reviewRepo,
		manifestBuilder,
		clustering,
		classifier,
		llmClient,
		services.CandidateConfig{
			MinScore:   cfg.Pipeline.CandidateMinScore,
			MaxPerPair: cfg.Pipeline.MaxCandidatesPerPair,
			MaxGlobal:  cfg.Pipeline.MaxCandidatesGlobal,
		},
		cfg.Pipeline.ConfidenceThreshold,
		logger,
	)
	storeService := services.NewCanonicalStoreService(canonicalRepo, logger)

	mux := http.NewServeMux()

	tenantMiddleware := handlers.NewTenantMiddleware(database.NewTenantScopeProvider(db), logger)

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	canonicalHandler := handlers.NewCanonicalHandler(buildService, storeService, logger)
	canonicalHandler.RegisterRoutes(mux, tenantMiddleware)

	log.Printf("Starting canon-engine on port %s (version: %s)", cfg.Port, cfg.Version)
	if err := http.ListenAndServe(cfg.BindAddr+":"+cfg.Port, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
