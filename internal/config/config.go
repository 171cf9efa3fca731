package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLINIC_DATABASE_HOST.
const EnvPrefix = "clinic"

type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	Session     SessionConfig   `mapstructure:"session"`
	Booking     BookingConfig   `mapstructure:"booking"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	SMTP        SMTPConfig      `mapstructure:"smtp"`
	Log         LogConfig       `mapstructure:"log"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Worker      WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	StaticDir       string        `mapstructure:"static_dir" split_words:"true"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" split_words:"true"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode" envconfig:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type SessionConfig struct {
	Store      string        `mapstructure:"store"`
	CookieName string        `mapstructure:"cookie_name" split_words:"true"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type BookingConfig struct {
	AllowPastDates  bool `mapstructure:"allow_past_dates" split_words:"true"`
	EnforceTemplate bool `mapstructure:"enforce_template" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Rate       float64 `mapstructure:"rate"`
	Burst      int     `mapstructure:"burst"`
	LoginRate  float64 `mapstructure:"login_rate" split_words:"true"`
	LoginBurst int     `mapstructure:"login_burst" split_words:"true"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type WorkerConfig struct {
	HealthPort int `mapstructure:"health_port" split_words:"true"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.static_dir", "./web")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)

	v.SetDefault("jwt.issuer", "clinic-api")
	v.SetDefault("jwt.expiry", time.Hour)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.cookie_name", "clinic_session")
	v.SetDefault("session.ttl", 24*time.Hour)

	v.SetDefault("booking.allow_past_dates", false)
	v.SetDefault("booking.enforce_template", true)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rate", 50)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.login_rate", 0.2)
	v.SetDefault("rate_limit.login_burst", 5)

	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@clinic.local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.namespace", "clinic")

	v.SetDefault("worker.health_port", 8081)
}

// Load reads config.yaml from the given directories (or the standard ones),
// then a .env file, then CLINIC_* environment overrides.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config", "/etc/clinic"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Session.Store {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			return errors.New("session store redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("jwt.expiry must be positive")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}
