package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type GRPC struct {
	Addr string `yaml:"addr" env:"GRPC_ADDR"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" env:"HTTP_IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"requestTimeout" env:"HTTP_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowedOrigins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
}

type Logging struct {
	Env       string `yaml:"env" env:"LOG_ENV"`             // dev|prod
	Service   string `yaml:"service" env:"LOG_SERVICE"`     // global-bus
	Version   string `yaml:"version" env:"LOG_VERSION"`     // v0.1.0
	Backend   string `yaml:"backend" env:"LOG_BACKEND"`     // std|zap
	AddSource bool   `yaml:"addSource" env:"LOG_ADD_SOURCE"` // false|true
	Debug     bool   `yaml:"debug" env:"LOG_DEBUG"`         // false|true
	Tracing   bool   `yaml:"tracing" env:"LOG_TRACING"`     // trace_id/span_id в логах
}

type Postgres struct {
	DSN               string        `yaml:"dsn" env:"POSTGRES_DSN"`
	MaxConns          int32         `yaml:"maxConns" env:"POSTGRES_MAX_CONNS"`
	MinConns          int32         `yaml:"minConns" env:"POSTGRES_MIN_CONNS"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime" env:"POSTGRES_MAX_CONN_LIFETIME"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime" env:"POSTGRES_MAX_CONN_IDLE_TIME"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod" env:"POSTGRES_HEALTH_CHECK_PERIOD"`
	ApplicationName   string        `yaml:"applicationName" env:"POSTGRES_APPLICATION_NAME"`
}

type SQLite struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

type Storage struct {
	Driver   string   `yaml:"driver" env:"STORAGE_DRIVER"` // postgres|sqlite
	Postgres Postgres `yaml:"postgres"`
	SQLite   SQLite   `yaml:"sqlite"`
}

type Session struct {
	PingEvery     time.Duration `yaml:"pingEvery" env:"SESSION_PING_EVERY"`
	SendQueue     int           `yaml:"sendQueue" env:"SESSION_SEND_QUEUE"`
	MaxMessageLen int           `yaml:"maxMessageLen" env:"SESSION_MAX_MESSAGE_LEN"`
	HistoryLimit  int           `yaml:"historyLimit" env:"SESSION_HISTORY_LIMIT"`
	WinnerPolicy  string        `yaml:"winnerPolicy" env:"SESSION_WINNER_POLICY"` // first_max|last_max
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Logging Logging `yaml:"logging"`
	Storage Storage `yaml:"storage"`
	Session Session `yaml:"session"`
}

// LoadConfig читает YAML (path, затем CONFIG_PATH, затем ./config/config.yaml),
// поверх накладывает переменные окружения, в том числе из .env.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse: YAML + окружение + проверка. Отдельно от LoadConfig ради тестов.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = DriverSQLite
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("storage.driver %q: want postgres or sqlite", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.Postgres.DSN == "" {
		return errors.New("storage.postgres.dsn is required")
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/globalbus.db"
	}
	if c.Storage.Postgres.ApplicationName == "" {
		c.Storage.Postgres.ApplicationName = "global-bus"
	}

	switch c.Session.WinnerPolicy {
	case "":
		c.Session.WinnerPolicy = "first_max"
	case "first_max", "last_max":
	default:
		return fmt.Errorf("session.winnerPolicy %q: want first_max or last_max", c.Session.WinnerPolicy)
	}

	// установка дефолтов, если значения не указаны
	c.HTTP.ReadTimeout = durationOr(c.HTTP.ReadTimeout, 10*time.Second)
	c.HTTP.WriteTimeout = durationOr(c.HTTP.WriteTimeout, 15*time.Second)
	c.HTTP.IdleTimeout = durationOr(c.HTTP.IdleTimeout, 60*time.Second)
	c.HTTP.RequestTimeout = durationOr(c.HTTP.RequestTimeout, 30*time.Second)
	c.HTTP.ShutdownTimeout = durationOr(c.HTTP.ShutdownTimeout, 10*time.Second)
	c.Session.PingEvery = durationOr(c.Session.PingEvery, 15*time.Second)
	if c.Session.SendQueue <= 0 {
		c.Session.SendQueue = 64
	}
	if c.Session.MaxMessageLen <= 0 {
		c.Session.MaxMessageLen = 4000
	}
	if c.Session.HistoryLimit <= 0 {
		c.Session.HistoryLimit = 50
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "global-bus"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
