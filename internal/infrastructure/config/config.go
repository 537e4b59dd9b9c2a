package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Database   DatabaseSettings
	Redis      RedisSettings
	Audit      AuditSettings
	Gateway    GatewaySettings
	Catalog    CatalogSettings
	Submission SubmissionSettings
	Artifacts  ArtifactSettings
	DANE       DANESettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	BatchTimeout    time.Duration // Request and write deadline of the batch endpoint
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	Audience    string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisSettings configures the catalog cache and the submission lock.
// With Redis disabled the service reads catalogs straight from PostgreSQL
// and submits without locking.
type RedisSettings struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	PoolSize int
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// GatewaySettings configures the tax document gateway client.
type GatewaySettings struct {
	BaseURL         string
	Timeout         time.Duration // invoices, credit notes and payroll
	SupportTimeout  time.Duration // support documents and their credit notes
	ArtifactTimeout time.Duration
	TokenTTL        time.Duration // How long company api tokens stay cached

	MaxConcurrentRequests int
	RateLimitRPS          float64
	RateLimitBurst        int

	BreakerMaxFailures int
	BreakerFailureRate float64
	BreakerCooldown    time.Duration
}

type CatalogSettings struct {
	CacheTTL time.Duration
}

type SubmissionSettings struct {
	WorkerPoolSize int
	LockTTL        time.Duration
}

// ArtifactSettings configures the optional GCS archive. An empty bucket
// disables archiving.
type ArtifactSettings struct {
	GCSBucket       string
	GCSPrefix       string
	CredentialsJSON string
}

type DANESettings struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads the configuration from the environment, after merging a
// local .env file when one exists. Variables already set win over the file.
// Malformed values and failed validations are reported together.
func Load() (AppConfig, error) {
	// A missing .env is fine: containers get plain environment variables.
	_ = godotenv.Load()

	env := newEnvReader()
	cfg := AppConfig{
		App: AppSettings{
			Name:        env.String("APP_NAME", "backend-dian"),
			Version:     env.String("APP_VERSION", "0.1.0"),
			Environment: env.String("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            env.Int("APP_PORT", 8080),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 5*time.Minute),
			BatchTimeout:    env.Duration("HTTP_BATCH_TIMEOUT", 15*time.Minute),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     env.Bool("AUTH_ENABLED", true),
			IssuerURI:   env.Trimmed("JWT_ISSUER_URI"),
			JWKSetURI:   env.Trimmed("JWT_JWK_SET_URI"),
			Audience:    env.Trimmed("JWT_AUDIENCE"),
			ClockSkew:   env.Duration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: env.List("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: env.String("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            env.String("DB_HOST", "localhost"),
			Port:            env.Int("DB_PORT", 5432),
			Database:        env.String("DB_NAME", "backend_dian"),
			User:            env.String("DB_USER", "postgres"),
			Password:        env.String("DB_PASSWORD", ""),
			SSLMode:         env.String("DB_SSL_MODE", "disable"),
			MaxOpenConns:    env.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.Int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisSettings{
			Enabled:  env.Bool("REDIS_ENABLED", true),
			Addr:     env.String("REDIS_ADDR", "localhost:6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			PoolSize: env.Int("REDIS_POOL_SIZE", 20),
		},
		Audit: AuditSettings{
			Enabled:         env.Bool("AUDIT_ENABLED", true),
			LogRequestBody:  env.Bool("AUDIT_LOG_REQUEST_BODY", true),
			LogResponseBody: env.Bool("AUDIT_LOG_RESPONSE_BODY", true),
			MaxBodySize:     env.Int("AUDIT_MAX_BODY_SIZE", 100<<10),
		},
		Gateway: GatewaySettings{
			BaseURL:               env.Trimmed("GATEWAY_BASE_URL"),
			Timeout:               env.Duration("GATEWAY_TIMEOUT", time.Minute),
			SupportTimeout:        env.Duration("GATEWAY_SUPPORT_TIMEOUT", 3*time.Minute),
			ArtifactTimeout:       env.Duration("GATEWAY_ARTIFACT_TIMEOUT", 30*time.Second),
			TokenTTL:              env.Duration("GATEWAY_TOKEN_TTL", time.Hour),
			MaxConcurrentRequests: env.Int("GATEWAY_MAX_CONCURRENT_REQUESTS", 50),
			RateLimitRPS:          env.Float("GATEWAY_RATE_LIMIT_RPS", 50),
			RateLimitBurst:        env.Int("GATEWAY_RATE_LIMIT_BURST", 10),
			BreakerMaxFailures:    env.Int("GATEWAY_BREAKER_MAX_FAILURES", 5),
			BreakerFailureRate:    env.Float("GATEWAY_BREAKER_FAILURE_RATE", 0.5),
			BreakerCooldown:       env.Duration("GATEWAY_BREAKER_COOLDOWN", 30*time.Second),
		},
		Catalog: CatalogSettings{
			CacheTTL: env.Duration("CATALOG_CACHE_TTL", time.Hour),
		},
		Submission: SubmissionSettings{
			WorkerPoolSize: env.Int("DOCUMENT_WORKER_POOL_SIZE", 10),
			LockTTL:        env.Duration("SUBMISSION_LOCK_TTL", 5*time.Minute),
		},
		Artifacts: ArtifactSettings{
			GCSBucket:       env.Trimmed("ARTIFACTS_GCS_BUCKET"),
			GCSPrefix:       env.String("ARTIFACTS_GCS_PREFIX", "artifacts"),
			CredentialsJSON: env.Trimmed("ARTIFACTS_GCS_CREDENTIALS_JSON"),
		},
		DANE: DANESettings{
			BaseURL: env.Trimmed("DANE_BASE_URL"),
			Timeout: env.Duration("DANE_TIMEOUT", 10*time.Second),
		},
	}

	problems := append(env.Errors(), cfg.Validate()...)
	if len(problems) > 0 {
		return cfg, fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return cfg, nil
}

// Validate checks the cross-field rules of a loaded configuration.
func (c AppConfig) Validate() []error {
	var problems []error
	if c.Gateway.BaseURL == "" {
		problems = append(problems, errors.New("GATEWAY_BASE_URL is required"))
	}
	if n := c.Gateway.MaxConcurrentRequests; n <= 0 || n > 200 {
		problems = append(problems, fmt.Errorf("GATEWAY_MAX_CONCURRENT_REQUESTS must be between 1 and 200, got %d", n))
	}
	if r := c.Gateway.BreakerFailureRate; r <= 0 || r > 1 {
		problems = append(problems, fmt.Errorf("GATEWAY_BREAKER_FAILURE_RATE must be in (0, 1], got %g", r))
	}
	if c.Submission.WorkerPoolSize <= 0 {
		problems = append(problems, errors.New("DOCUMENT_WORKER_POOL_SIZE must be greater than 0"))
	}
	// A lock shorter than the slowest gateway call could expire mid-submission.
	if c.Submission.LockTTL < c.Gateway.SupportTimeout {
		problems = append(problems, fmt.Errorf("SUBMISSION_LOCK_TTL (%s) must be at least GATEWAY_SUPPORT_TIMEOUT (%s)",
			c.Submission.LockTTL, c.Gateway.SupportTimeout))
	}
	if c.Auth.Enabled {
		if c.Auth.IssuerURI == "" {
			problems = append(problems, errors.New("JWT_ISSUER_URI is required when AUTH_ENABLED=true"))
		}
		if c.Auth.JWKSetURI == "" {
			problems = append(problems, errors.New("JWT_JWK_SET_URI is required when AUTH_ENABLED=true"))
		}
	}
	return problems
}

// Address returns the HTTP listen address in :port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}
