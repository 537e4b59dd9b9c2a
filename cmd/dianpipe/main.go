package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	artifactgcs "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/artifact/gcs"
	auditpg "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/audit/postgres"
	catalogpg "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/catalog/postgres"
	catalogredis "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/catalog/redis"
	companypg "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/company/postgres"
	documentpg "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/document/postgres"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/gateway/apidian"
	dochandler "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/http/document"
	healthhandler "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/http/health"
	resolutionhandler "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/http/resolution"
	lockredis "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/lock/redis"
	resolutionpg "github.com/Darklegion92/backend-DIAN-sub001/internal/adapters/resolution/postgres"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/assembler"
	appcatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/application/catalog"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/credential"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/application/evaluator"
	apphealth "github.com/Darklegion92/backend-DIAN-sub001/internal/application/health"
	appresolution "github.com/Darklegion92/backend-DIAN-sub001/internal/application/resolution"
	appsubmission "github.com/Darklegion92/backend-DIAN-sub001/internal/application/submission"
	apptax "github.com/Darklegion92/backend-DIAN-sub001/internal/application/tax"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/audit"
	corecatalog "github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
	coredocument "github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
	coretax "github.com/Darklegion92/backend-DIAN-sub001/internal/core/tax"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/config"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/database"
	infrahttp "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http/server"
	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/logger"
	infraredis "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, databaseConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("Database connection established", "database", cfg.Database.Database)

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = infraredis.NewClient(ctx, infraredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
		log.Info("Redis connection established", "addr", cfg.Redis.Addr)
	} else {
		log.Warn("Redis disabled, catalog cache and document locks are off")
	}

	// Catalog resolution: PostgreSQL behind an optional Redis cache, batched
	// per request by the dataloader.
	var catalogStore corecatalog.Store = catalogpg.NewStore(pool)
	if redisClient != nil {
		catalogStore = catalogredis.NewCachedStore(redisClient, catalogStore, cfg.Catalog.CacheTTL, log)
	}
	resolver := appcatalog.NewResolver(catalogStore, log)
	docAssembler := assembler.New(resolver, apptax.NewEngine(coretax.DefaultPolicies(), log), log)

	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		auditRepo = auditpg.NewRepository(pool, log)
	}
	tracedClient := infrahttp.NewTracedClient(&infrahttp.TracedClientConfig{
		Timeout:         cfg.Gateway.SupportTimeout,
		AuditEnabled:    auditRepo != nil,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
		MaxConnsPerHost: cfg.Gateway.MaxConcurrentRequests,
	}, log, auditRepo, "apidian")
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tracedClient.Flush(flushCtx); err != nil {
			log.Warn("Audit writes still pending at shutdown", "error", err)
		}
	}()

	gateway := apidian.NewClient(apidian.Config{
		BaseURL:            cfg.Gateway.BaseURL,
		Timeout:            cfg.Gateway.Timeout,
		SupportTimeout:     cfg.Gateway.SupportTimeout,
		ArtifactTimeout:    cfg.Gateway.ArtifactTimeout,
		MaxConcurrent:      cfg.Gateway.MaxConcurrentRequests,
		RequestsPerSecond:  cfg.Gateway.RateLimitRPS,
		Burst:              cfg.Gateway.RateLimitBurst,
		BreakerMaxFailures: cfg.Gateway.BreakerMaxFailures,
		BreakerFailureRate: cfg.Gateway.BreakerFailureRate,
		BreakerCooldown:    cfg.Gateway.BreakerCooldown,
	}, tracedClient, log)

	documents := documentpg.NewStore(pool)
	resolutions := resolutionpg.NewRepository(pool)

	deps := appsubmission.Deps{
		Catalog:     resolver,
		Assembler:   docAssembler,
		Resolutions: resolutions,
		Credentials: credential.NewProvider(companypg.NewRepository(pool), cfg.Gateway.TokenTTL, log),
		Documents:   documents,
		Gateway:     gateway,
		Artifacts:   gateway,
		Evaluator:   evaluator.New(documents, gateway, log),
	}
	if redisClient != nil {
		deps.Locker = lockredis.NewLocker(redisClient)
	}
	if cfg.Artifacts.GCSBucket != "" {
		archive, err := artifactgcs.NewArchive(ctx, artifactgcs.Config{
			Bucket:          cfg.Artifacts.GCSBucket,
			Prefix:          cfg.Artifacts.GCSPrefix,
			CredentialsJSON: cfg.Artifacts.CredentialsJSON,
		})
		if err != nil {
			return fmt.Errorf("open artifact archive: %w", err)
		}
		defer archive.Close()
		deps.Archive = archive
		log.Info("Artifact archive enabled", "bucket", cfg.Artifacts.GCSBucket)
	}

	submissions := appsubmission.NewService(deps, appsubmission.Options{
		LockTTL:      cfg.Submission.LockTTL,
		BatchWorkers: cfg.Submission.WorkerPoolSize,
	}, log)

	health := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	})
	health.Register("database", pingCheck(pool))
	if redisClient != nil {
		health.Register("redis", apphealth.CheckFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}))
	}
	health.Register("gateway", gateway)

	srv, err := server.New(server.Options{
		Config:        cfg,
		Logger:        log,
		HealthHandler: http.HandlerFunc(healthhandler.NewHandler(health).Status),
		Documents: dochandler.NewHandler(submissions, func(doc coredocument.Document) any {
			return apidian.NewPayload(doc)
		}, log),
		Resolutions: resolutionhandler.NewHandler(appresolution.NewService(resolutions), log),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Starting HTTP server",
		"port", cfg.HTTP.Port,
		"gateway", cfg.Gateway.BaseURL,
		"workers", cfg.Submission.WorkerPoolSize,
	)
	return srv.Run(ctx)
}

func databaseConfig(db config.DatabaseSettings) database.Config {
	return database.Config{
		Host:            db.Host,
		Port:            db.Port,
		Database:        db.Database,
		User:            db.User,
		Password:        db.Password,
		SSLMode:         db.SSLMode,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
	}
}

func pingCheck(pool *pgxpool.Pool) apphealth.Checker {
	return apphealth.CheckFunc(pool.Ping)
}
