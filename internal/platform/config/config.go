// Package config arma la configuración del servicio en tres capas: defaults del
// código, un archivo YAML opcional (CONFIG_FILE) y variables de entorno, en ese orden.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	HTTP       HTTP       `yaml:"http"`
	Log        Log        `yaml:"log"`
	Store      Store      `yaml:"store"`
	Settlement Settlement `yaml:"settlement"`
	Auth       Auth       `yaml:"auth"`
	Tracing    Tracing    `yaml:"tracing"`
}

type HTTP struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR"`
	// Port es el atajo heredado: si viene, Addr pasa a ser ":<port>".
	Port            string        `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	App    string `yaml:"app" env:"APP_NAME"`
}

type Store struct {
	// Driver: memory, sqlite o postgres.
	Driver      string `yaml:"driver" env:"STORE_DRIVER"`
	DSN         string `yaml:"dsn" env:"STORE_DSN"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"STORE_AUTO_MIGRATE"`
}

type Settlement struct {
	// URL vacía usa el proveedor stub.
	URL     string        `yaml:"url" env:"SETTLEMENT_URL"`
	Token   string        `yaml:"token" env:"SETTLEMENT_TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"SETTLEMENT_TIMEOUT"`
}

type Auth struct {
	// OdinBaseURL vacío deja el modo dev (headers X-Debug-*).
	OdinBaseURL string        `yaml:"odin_base_url" env:"ODIN_BASE_URL"`
	OdinAPIKey  string        `yaml:"odin_api_key" env:"ODIN_API_KEY"`
	OdinTimeout time.Duration `yaml:"odin_timeout" env:"ODIN_TIMEOUT"`
}

type Tracing struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

func Defaults() Config {
	return Config{
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
			App:    "pet-adoption",
		},
		Store: Store{
			Driver: StoreMemory,
		},
		Settlement: Settlement{
			Timeout: 5 * time.Second,
		},
		Auth: Auth{
			OdinTimeout: 5 * time.Second,
		},
		Tracing: Tracing{
			ServiceName: "pet-adoption",
		},
	}
}

// Load aplica defaults, luego el YAML de path (o de CONFIG_FILE si path es vacío) y
// por último el entorno. Un archivo inexistente pedido explícitamente es error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if p := strings.TrimSpace(cfg.HTTP.Port); p != "" {
		cfg.HTTP.Addr = ":" + p
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http addr required"))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite, StorePostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			errs = append(errs, fmt.Errorf("store dsn required for driver %s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Settlement.Timeout <= 0 {
		errs = append(errs, errors.New("settlement timeout must be positive"))
	}
	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.Endpoint) == "" {
		errs = append(errs, errors.New("otel endpoint required when tracing is enabled"))
	}
	return errors.Join(errs...)
}
