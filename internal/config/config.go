package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the club binaries read at start-up.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reminders ReminderConfig  `yaml:"reminders"`
	Historian HistorianConfig `yaml:"historian"`
	Club      ClubConfig      `yaml:"club"`
}

// ServerConfig holds HTTP listener and logging settings.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	LogLevel    string `yaml:"log_level"`
	Environment string `yaml:"environment"`
	InstanceID  string `yaml:"instance_id"`
	// AllowedOrigins restricts CORS in production. Other environments accept any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the Redis connection and the key/channel names the service uses.
type RedisConfig struct {
	Addr                 string `yaml:"addr"`
	Password             string `yaml:"password"`
	DB                   int    `yaml:"db"`
	AuditQueue           string `yaml:"audit_queue"`
	ScoreboardChannel    string `yaml:"scoreboard_channel"`
	NotificationsChannel string `yaml:"notifications_channel"`
}

// JWTConfig holds the shared secret of the hosted auth backend.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// RateLimitConfig configures the per-IP token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type ReminderConfig struct {
	Lead    time.Duration `yaml:"lead"`
	Workers int           `yaml:"workers"`
}

type HistorianConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type ClubConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// Default returns the configuration used for any key left unset.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			LogLevel:    "info",
			Environment: "development",
		},
		Redis: RedisConfig{
			Addr:                 "localhost:6379",
			AuditQueue:           "volei:audit",
			ScoreboardChannel:    "volei:scoreboard",
			NotificationsChannel: "volei:notifications",
		},
		JWT: JWTConfig{
			TTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Reminders: ReminderConfig{
			Lead:    3 * time.Hour,
			Workers: 2,
		},
		Historian: HistorianConfig{
			BatchSize:     50,
			FlushInterval: 5 * time.Second,
		},
		Club: ClubConfig{
			Name:     "Volei",
			Timezone: "America/Sao_Paulo",
		},
	}
}

// Load reads the YAML file at filename on top of the defaults and then applies
// environment overrides. A missing file is not an error; the defaults and the
// environment are used instead.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.Server.LogLevel, "LOG_LEVEL")
	setString(&cfg.Server.Environment, "ENV")
	setString(&cfg.Server.InstanceID, "INSTANCE_ID")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Redis.AuditQueue, "REDIS_AUDIT_QUEUE")
	setString(&cfg.Redis.ScoreboardChannel, "REDIS_SCOREBOARD_CHANNEL")
	setString(&cfg.Redis.NotificationsChannel, "REDIS_NOTIFICATIONS_CHANNEL")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.JWT.Issuer, "JWT_ISSUER")
	setString(&cfg.Club.Name, "CLUB_NAME")
	setString(&cfg.Club.Timezone, "CLUB_TIMEZONE")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	if err := setInt(&cfg.Redis.DB, "REDIS_DB"); err != nil {
		return err
	}
	if err := setInt(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if err := setInt(&cfg.Reminders.Workers, "REMINDER_WORKERS"); err != nil {
		return err
	}
	if err := setInt(&cfg.Historian.BatchSize, "HISTORIAN_BATCH_SIZE"); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS value: %w", err)
		}
		cfg.RateLimit.RequestsPerSecond = f
	}
	if err := setDuration(&cfg.JWT.TTL, "JWT_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Reminders.Lead, "REMINDER_LEAD"); err != nil {
		return err
	}
	return setDuration(&cfg.Historian.FlushInterval, "HISTORIAN_FLUSH_INTERVAL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = d
	return nil
}

// Location resolves the club timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Club.Timezone)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// CORSOrigins is the origin allow-list for the HTTP API.
func (c *Config) CORSOrigins() []string {
	if c.IsProduction() {
		return c.Server.AllowedOrigins
	}
	return []string{"https://*", "http://*"}
}

// RequireDatabase fails when no Postgres DSN was configured.
func (c *Config) RequireDatabase() error {
	if c.Postgres.DSN == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	return nil
}

// RequireJWT fails when no signing secret was configured.
func (c *Config) RequireJWT() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	return nil
}
