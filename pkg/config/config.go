package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Delivery     DeliveryConfig
	Pricing      PricingConfig
	Cart         CartConfig
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
	Env          string `envconfig:"FLOWERSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"FLOWERSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLOWERSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLOWERSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLOWERSHOP_DB_DSN"`
	Driver string `envconfig:"FLOWERSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLOWERSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"FLOWERSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLOWERSHOP_DB_USER"`
	LegacyPassword string `envconfig:"FLOWERSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLOWERSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLOWERSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLOWERSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLOWERSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLOWERSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLOWERSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLOWERSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLOWERSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"FLOWERSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLOWERSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLOWERSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLOWERSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLOWERSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLOWERSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLOWERSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// DeliveryConfig drives the slot planner and the flat delivery fee.
type DeliveryConfig struct {
	FlatFee           int           `envconfig:"FLOWERSHOP_DELIVERY_FLAT_FEE" default:"1500"`
	CourierPrepBuffer time.Duration `envconfig:"FLOWERSHOP_DELIVERY_COURIER_PREP_BUFFER" default:"2h"`
	PickupPrepBuffer  time.Duration `envconfig:"FLOWERSHOP_DELIVERY_PICKUP_PREP_BUFFER" default:"1h"`
	HorizonDays       int           `envconfig:"FLOWERSHOP_DELIVERY_HORIZON_DAYS" default:"3"`
	FirstWindowHour   int           `envconfig:"FLOWERSHOP_DELIVERY_FIRST_WINDOW_HOUR" default:"10"`
	LastWindowHour    int           `envconfig:"FLOWERSHOP_DELIVERY_LAST_WINDOW_HOUR" default:"22"`
	WindowLengthHours int           `envconfig:"FLOWERSHOP_DELIVERY_WINDOW_LENGTH_HOURS" default:"2"`
}

type PricingConfig struct {
	DefaultMarkupPercent int `envconfig:"FLOWERSHOP_PRICING_DEFAULT_MARKUP_PERCENT" default:"100"`
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"FLOWERSHOP_CART_SNAPSHOT_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLOWERSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLOWERSHOP_AUTO_MIGRATE" default:"false"`
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
