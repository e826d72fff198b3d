package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"novaengine/app/config"
	"novaengine/app/usecase"
	"novaengine/internal/infrastructure/cache"
	"novaengine/internal/infrastructure/llm"
	"novaengine/internal/infrastructure/store/filesystem"
	"novaengine/internal/infrastructure/store/mongodb"
	"novaengine/internal/infrastructure/transport"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Error("auth.jwt_secret is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Error("mongo connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect", slog.String("error", err.Error()))
		}
	}()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("mongo ping", slog.String("error", err.Error()))
		os.Exit(1)
	}
	db := client.Database(cfg.Mongo.Database)

	userRepo := mongodb.NewUserRepository(db)
	kitRepo := mongodb.NewBrandKitRepository(ctx, db, logger)
	jobRepo := mongodb.NewJobRepository(ctx, db, logger)
	exampleRepo := mongodb.NewExampleRepository(ctx, db, logger)

	var poolCache usecase.PoolCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, example pool cache disabled", slog.String("error", err.Error()))
		} else {
			poolCache = cache.NewRedisPoolCache(redisClient, cfg.Redis.PoolTTL, logger)
		}
	}

	generator, err := llm.New(cfg.LLM.Provider, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		logger.Error("llm backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	datasetSource, err := filesystem.NewDatasetSource(cfg.Dataset.Dir)
	if err != nil {
		logger.Error("dataset source", slog.String("error", err.Error()))
		os.Exit(1)
	}

	retriever := usecase.NewExampleRetriever(exampleRepo, poolCache, logger)
	generation := usecase.NewGenerationService(userRepo, kitRepo, jobRepo, retriever, generator, logger)
	brandKits := usecase.NewBrandKitService(kitRepo, logger)
	dataset := usecase.NewDatasetService(exampleRepo, datasetSource, logger)
	credits := usecase.NewCreditService(userRepo, logger)

	handler := transport.NewHandler(
		generation, brandKits, dataset, credits,
		logger,
		cfg.Auth.JWTSecret, cfg.Auth.IngestKey, cfg.Auth.ProviderKey,
	)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Ingest-Key", "X-Provider-Key"}),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      cors(handler.Router()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server started",
			slog.String("addr", cfg.Server.Addr),
			slog.String("provider", cfg.LLM.Provider),
			slog.String("model", cfg.LLM.Model),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}

// loadConfig starts from defaults, overlays an optional HCL file, then
// lets environment variables win.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	cfg := config.Default()

	if path := os.Getenv("NOVA_CONFIG"); path != "" {
		loaded, err := config.FromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		logger.Info("config loaded", slog.String("path", path))
	}

	setEnv(&cfg.Server.Addr, "NOVA_ADDR")
	setEnv(&cfg.LLM.Provider, "NOVA_LLM_PROVIDER")
	setEnv(&cfg.LLM.BaseURL, "NOVA_LLM_BASE_URL")
	setEnv(&cfg.LLM.Model, "NOVA_LLM_MODEL")
	setEnv(&cfg.Mongo.URI, "NOVA_MONGO_URI")
	setEnv(&cfg.Mongo.Database, "NOVA_MONGO_DB")
	setEnv(&cfg.Redis.Addr, "NOVA_REDIS_ADDR")
	setEnv(&cfg.Redis.Password, "NOVA_REDIS_PASSWORD")
	setEnv(&cfg.Auth.JWTSecret, "NOVA_JWT_SECRET")
	setEnv(&cfg.Auth.IngestKey, "NOVA_INGEST_KEY")
	setEnv(&cfg.Auth.ProviderKey, "NOVA_PROVIDER_KEY")
	setEnv(&cfg.Dataset.Dir, "NOVA_DATASET_DIR")

	if origins := os.Getenv("NOVA_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	return cfg, nil
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
