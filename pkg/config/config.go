package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; variable names below carry the
	// full prefix already, so the prefix itself stays empty.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "CAMPUSMERCH_APP_ENV"
	EnvDBDSN  = "CAMPUSMERCH_DB_DSN"
	EnvDBHost = "CAMPUSMERCH_DB_HOST"
	EnvDBUser = "CAMPUSMERCH_DB_USER"
	EnvDBName = "CAMPUSMERCH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Outbox       OutboxConfig
	Audit        AuditConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAMPUSMERCH_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSMERCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUSMERCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSMERCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSMERCH_DB_DSN"`
	Driver string `envconfig:"CAMPUSMERCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSMERCH_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSMERCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSMERCH_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSMERCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSMERCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSMERCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSMERCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSMERCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSMERCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSMERCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSMERCH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSMERCH_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSMERCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSMERCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSMERCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSMERCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSMERCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSMERCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSMERCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPUSMERCH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPUSMERCH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPUSMERCH_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PricingConfig struct {
	CacheTTL time.Duration `envconfig:"CAMPUSMERCH_PRICING_CACHE_TTL" default:"5m"`
}

type OutboxConfig struct {
	Channel        string `envconfig:"CAMPUSMERCH_OUTBOX_CHANNEL" default:"campusmerch.events"`
	BatchSize      int    `envconfig:"CAMPUSMERCH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"CAMPUSMERCH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"CAMPUSMERCH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AuditConfig struct {
	Interval  time.Duration `envconfig:"CAMPUSMERCH_AUDIT_INTERVAL" default:"1h"`
	BatchSize int           `envconfig:"CAMPUSMERCH_AUDIT_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAMPUSMERCH_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
