package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "RAFFLE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "RAFFLE_DB_DSN"
	EnvDBHost = "RAFFLE_DB_HOST"
	EnvDBUser = "RAFFLE_DB_USER"
	EnvDBName = "RAFFLE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Raffle       RaffleConfig
	Cron         CronConfig
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
	Env          string `envconfig:"RAFFLE_APP_ENV" required:"true"`
	Port         string `envconfig:"RAFFLE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RAFFLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RAFFLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"RAFFLE_DB_DSN"`

	LegacyHost     string `envconfig:"RAFFLE_DB_HOST"`
	LegacyPort     int    `envconfig:"RAFFLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RAFFLE_DB_USER"`
	LegacyPassword string `envconfig:"RAFFLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RAFFLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RAFFLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RAFFLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RAFFLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RAFFLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RAFFLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RAFFLE_REDIS_URL"`
	Address      string        `envconfig:"RAFFLE_REDIS_ADDR"`
	Password     string        `envconfig:"RAFFLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RAFFLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RAFFLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RAFFLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RAFFLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RAFFLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RAFFLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RaffleConfig bounds the purchase/draw transactions.
type RaffleConfig struct {
	PurchaseTxTimeout time.Duration `envconfig:"RAFFLE_PURCHASE_TX_TIMEOUT" default:"5s"`
	DrawTxTimeout     time.Duration `envconfig:"RAFFLE_DRAW_TX_TIMEOUT" default:"15s"`
	LockTimeout       time.Duration `envconfig:"RAFFLE_LOCK_TIMEOUT" default:"3s"`
	MaxQuantity       int           `envconfig:"RAFFLE_MAX_PURCHASE_QUANTITY" default:"1000"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"RAFFLE_CRON_INTERVAL" default:"1m"`
	LockKey  string        `envconfig:"RAFFLE_CRON_LOCK_KEY" default:"cron:raffle-worker"`
	LockTTL  time.Duration `envconfig:"RAFFLE_CRON_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RAFFLE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RAFFLE_AUTO_MIGRATE" default:"false"`
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
