package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/stakeline/stakeline-backend/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Lock         LockConfig
	Limits       LimitsConfig
	Batch        BatchConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"STAKELINE_APP_ENV" required:"true"`
	Port         string `envconfig:"STAKELINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STAKELINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STAKELINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STAKELINE_DB_DSN"`

	LegacyHost     string `envconfig:"STAKELINE_DB_HOST"`
	LegacyPort     int    `envconfig:"STAKELINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STAKELINE_DB_USER"`
	LegacyPassword string `envconfig:"STAKELINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STAKELINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STAKELINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STAKELINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STAKELINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STAKELINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STAKELINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STAKELINE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STAKELINE_REDIS_ADDR"`
	Password     string        `envconfig:"STAKELINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STAKELINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STAKELINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STAKELINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STAKELINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STAKELINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STAKELINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// LockConfig sets the coordination-lock TTL per operation class plus the
// acquisition retry policy. TTLs must stay above the worst-case duration of
// the critical section they guard.
type LockConfig struct {
	SingleTTL    time.Duration `envconfig:"STAKELINE_LOCK_SINGLE_TTL" default:"10s"`
	BatchTTL     time.Duration `envconfig:"STAKELINE_LOCK_BATCH_TTL" default:"30s"`
	VaultTTL     time.Duration `envconfig:"STAKELINE_LOCK_VAULT_TTL" default:"20s"`
	TipTTL       time.Duration `envconfig:"STAKELINE_LOCK_TIP_TTL" default:"20s"`
	SwitchTTL    time.Duration `envconfig:"STAKELINE_LOCK_SWITCH_TTL" default:"10s"`
	RetryCount   int           `envconfig:"STAKELINE_LOCK_RETRY_COUNT" default:"10"`
	RetryBackoff time.Duration `envconfig:"STAKELINE_LOCK_RETRY_BACKOFF" default:"100ms"`
}

// LimitsConfig carries the per-asset financial bounds used by validation and
// the daily withdrawal cap. Values are decimal strings in asset units.
type LimitsConfig struct {
	MinDeposit       string `envconfig:"STAKELINE_LIMITS_MIN_DEPOSIT" default:"0.00000001"`
	MaxDeposit       string `envconfig:"STAKELINE_LIMITS_MAX_DEPOSIT" default:"1000000"`
	MinWithdraw      string `envconfig:"STAKELINE_LIMITS_MIN_WITHDRAW" default:"0.00000001"`
	MaxWithdraw      string `envconfig:"STAKELINE_LIMITS_MAX_WITHDRAW" default:"1000000"`
	MaxBet           string `envconfig:"STAKELINE_LIMITS_MAX_BET" default:"100000"`
	MaxBalance       string `envconfig:"STAKELINE_LIMITS_MAX_BALANCE" default:"100000000"`
	DailyWithdrawRaw string `envconfig:"STAKELINE_LIMITS_DAILY_WITHDRAW" default:"BTC=10,ETH=200,LTC=2000,TRX=2000000,SOL=5000,USDT=500000,USDC=500000"`
}

// DailyWithdrawLimits parses the per-asset daily withdrawal caps.
func (l LimitsConfig) DailyWithdrawLimits() (map[enums.Asset]decimal.Decimal, error) {
	out := make(map[enums.Asset]decimal.Decimal)
	for _, pair := range strings.Split(l.DailyWithdrawRaw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid daily withdraw entry %q", pair)
		}
		asset, err := enums.ParseAsset(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid daily withdraw amount for %s: %w", asset, err)
		}
		out[asset] = amount
	}
	return out, nil
}

// BatchConfig bounds the batched ledger variant.
type BatchConfig struct {
	MaxOperations int `envconfig:"STAKELINE_BATCH_MAX_OPERATIONS" default:"25"`
}

type JWTConfig struct {
	Secret string `envconfig:"STAKELINE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STAKELINE_JWT_ISSUER" required:"true"`
}

// RateLimitConfig throttles hot player-facing surfaces. The ledger itself has
// no throughput bound, so tipping gets an explicit cap.
type RateLimitConfig struct {
	TipWindow    time.Duration `envconfig:"STAKELINE_RATE_LIMIT_TIP_WINDOW" default:"1m"`
	TipIPLimit   int           `envconfig:"STAKELINE_RATE_LIMIT_TIP_IP_LIMIT" default:"30"`
	TipUserLimit int           `envconfig:"STAKELINE_RATE_LIMIT_TIP_USER_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STAKELINE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STAKELINE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STAKELINE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STAKELINE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BalanceTopic        string `envconfig:"STAKELINE_PUBSUB_BALANCE_TOPIC" required:"true"`
	BalanceSubscription string `envconfig:"STAKELINE_PUBSUB_BALANCE_SUBSCRIPTION" required:"true"`
	BetTopic            string `envconfig:"STAKELINE_PUBSUB_BET_TOPIC" required:"true"`
	BetSubscription     string `envconfig:"STAKELINE_PUBSUB_BET_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STAKELINE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STAKELINE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STAKELINE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
