package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Postgres  PostgresConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Shortener ShortenerConfig
	Auth      AuthConfig
	Geo       GeoConfig
	Security  SecurityConfig
	OTel      OTelConfig
}

type AppConfig struct {
	Name     string
	Version  string
	Env      string
	LogLevel string
}

type ServerConfig struct {
	Port              string
	Host              string
	CORSOrigins       []string
	TrustProxyHeaders bool
}

type PostgresConfig struct {
	URL string
}

// DSN returns the configured connection string.
func (c PostgresConfig) DSN() string {
	return c.URL
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ShortenerConfig struct {
	BaseURL        string
	RedirectStatus int // 301 or 302
	LinkLifetime   time.Duration
	VisitTimeout   time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type GeoConfig struct {
	Endpoint       string
	Timeout        time.Duration
	MaxFailures    int
	BreakerTimeout time.Duration
}

type SecurityConfig struct {
	CreateRate RateConfig
}

type RateConfig struct {
	RequestsPerMinute int
}

type OTelConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{
		App: AppConfig{
			Name:     GetEnv("APP_NAME", "encurtador-qr"),
			Version:  GetEnv("APP_VERSION", "0.1.0"),
			Env:      GetEnv("APP_ENV", "development"),
			LogLevel: GetEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:              GetEnv("APP_PORT", "8000"),
			Host:              GetEnv("APP_HOST", "localhost"),
			CORSOrigins:       SplitCSV(GetEnv("CORS_ALLOWED_ORIGINS", "")),
			TrustProxyHeaders: GetEnvBool("TRUST_PROXY_HEADERS", true),
		},
		Postgres: PostgresConfig{
			URL: GetEnv("DB_DSN", DefaultPostgresDSN()),
		},
		MongoDB: MongoDBConfig{
			URI:      GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: GetEnv("MONGODB_DATABASE", "encurtador"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvInt("REDIS_DB", 0),
		},
		Shortener: ShortenerConfig{
			BaseURL:        GetEnv("BACKEND_URL", "http://localhost:8000"),
			RedirectStatus: GetEnvInt("REDIRECT_STATUS", 301),
			LinkLifetime:   GetEnvDuration("LINK_LIFETIME", 10*365*24*time.Hour),
			VisitTimeout:   GetEnvDuration("VISIT_RECORD_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:  GetEnv("JWT_SECRET_KEY", ""),
			TokenTTL:   GetEnvDuration("JWT_TOKEN_EXPIRY", 24*time.Hour),
			BcryptCost: GetEnvInt("BCRYPT_COST", 10),
		},
		Geo: GeoConfig{
			Endpoint:       GetEnv("GEO_ENDPOINT", "http://www.geoplugin.net/json.gp"),
			Timeout:        GetEnvDuration("GEO_TIMEOUT", 2*time.Second),
			MaxFailures:    GetEnvInt("GEO_MAX_FAILURES", 5),
			BreakerTimeout: GetEnvDuration("GEO_BREAKER_TIMEOUT", 30*time.Second),
		},
		Security: SecurityConfig{
			CreateRate: RateConfig{
				RequestsPerMinute: GetEnvInt("CREATE_RATE_PER_MINUTE", 30),
			},
		},
		OTel: OTelConfig{
			Enabled:     GetEnvBool("OTEL_ENABLED", false),
			Endpoint:    GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			SampleRatio: GetEnvFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Shortener.RedirectStatus != 301 && c.Shortener.RedirectStatus != 302 {
		return fmt.Errorf("REDIRECT_STATUS must be 301 or 302 (got %d)", c.Shortener.RedirectStatus)
	}
	if c.Shortener.LinkLifetime <= 0 {
		return fmt.Errorf("LINK_LIFETIME must be > 0")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TOKEN_EXPIRY must be > 0")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31 (got %d)", c.Auth.BcryptCost)
	}
	if c.Geo.Timeout <= 0 {
		return fmt.Errorf("GEO_TIMEOUT must be > 0")
	}
	return nil
}
