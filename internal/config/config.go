package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SMARTMILK"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver       string        `mapstructure:"driver"`
	URL          string        `mapstructure:"url"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	// Backend is either "redis" or "memory".
	Backend    string        `mapstructure:"backend"`
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
	Secure     bool          `mapstructure:"secure"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type DashboardConfig struct {
	CupSize      float64       `mapstructure:"cup_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	// Mode "release" logs JSON at info level, anything else logs at debug level.
	Mode string `mapstructure:"mode"`
	File string `mapstructure:"file"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.query_timeout", 3*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("session.backend", "redis")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.secure", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 15*time.Minute)
	v.SetDefault("dashboard.cup_size", 200.0)
	v.SetDefault("dashboard.poll_interval", 30*time.Second)
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.file", "smartmilk.log")
}

// Load reads defaults, the optional config file and the environment.
// SMARTMILK_DATABASE_URL and the bare DATABASE_URL are both honoured.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind DATABASE_URL: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return errors.New("database.url (or DATABASE_URL) is required")
	}
	switch c.Session.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported session.backend %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Dashboard.CupSize <= 0 {
		return errors.New("dashboard.cup_size must be positive")
	}
	return nil
}
