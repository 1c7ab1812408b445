// Package config loads the engine settings from an optional YAML file and
// lets environment variables override individual values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dossier-engine/internal/model"
)

type Config struct {
	Port          string             `yaml:"port"`
	LogMode       string             `yaml:"log_mode"`
	Agency        string             `yaml:"agency"`
	Rates         map[string]float64 `yaml:"rates"`
	RatesURL      string             `yaml:"rates_url"`
	Nationalities []string           `yaml:"nationalities"`
	Operator      OperatorConfig     `yaml:"operator"`
	Void          VoidConfig         `yaml:"void"`
	Reconcile     ReconcileConfig    `yaml:"reconcile"`
	Store         StoreConfig        `yaml:"store"`
	Numbering     NumberingConfig    `yaml:"numbering"`
	Tracing       TracingConfig      `yaml:"tracing"`
}

// OperatorConfig is the default operator for requests that name none.
type OperatorConfig struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

// VoidConfig holds the elevated-privilege secret for payment voids. A bcrypt
// hash is preferred; the plain secret is hashed at startup.
type VoidConfig struct {
	Secret     string `yaml:"secret"`
	SecretHash string `yaml:"secret_hash"`
}

type ReconcileConfig struct {
	Partner  string        `yaml:"partner"`
	BaseURL  string        `yaml:"base_url"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
	Debounce time.Duration `yaml:"debounce"`
}

type StoreConfig struct {
	// Backend is memory, redis or s3.
	Backend string      `yaml:"backend"`
	Mirror  bool        `yaml:"mirror"`
	Redis   RedisConfig `yaml:"redis"`
	S3      S3Config    `yaml:"s3"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	LocalEndpoint string `yaml:"local_endpoint"`
}

type NumberingConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func Default() Config {
	return Config{
		Port:    "8080",
		LogMode: "dev",
		Agency:  "Olympic Travel",
		Operator: OperatorConfig{
			Name:  "Operater",
			Level: 6,
		},
		Reconcile: ReconcileConfig{
			Partner:  "Solvex",
			Timeout:  5 * time.Second,
			Debounce: 1500 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "dossier:"},
			S3:      S3Config{Prefix: "dossiers/"},
		},
		Numbering: NumberingConfig{
			Driver: "sqlite",
			DSN:    "file:numbering.db?cache=shared",
		},
		Tracing: TracingConfig{
			ServiceName: "dossier-engine",
			SampleRatio: 1,
		},
	}
}

// Load reads path when it is non-empty, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envString("PORT", c.Port)
	c.LogMode = envString("LOG_MODE", c.LogMode)
	c.Agency = envString("AGENCY_NAME", c.Agency)
	c.RatesURL = envString("RATES_URL", c.RatesURL)

	c.Operator.Name = envString("OPERATOR_NAME", c.Operator.Name)
	c.Operator.Level = envInt("OPERATOR_LEVEL", c.Operator.Level)

	c.Void.Secret = envString("VOID_SECRET", c.Void.Secret)
	c.Void.SecretHash = envString("VOID_SECRET_HASH", c.Void.SecretHash)

	c.Reconcile.Partner = envString("RECONCILE_PARTNER", c.Reconcile.Partner)
	c.Reconcile.BaseURL = envString("RECONCILE_BASE_URL", c.Reconcile.BaseURL)
	c.Reconcile.Token = envString("RECONCILE_TOKEN", c.Reconcile.Token)
	c.Reconcile.Timeout = envDuration("RECONCILE_TIMEOUT", c.Reconcile.Timeout)
	c.Reconcile.Debounce = envDuration("RECONCILE_DEBOUNCE", c.Reconcile.Debounce)

	c.Store.Backend = envString("STORE_BACKEND", c.Store.Backend)
	c.Store.Mirror = envBool("STORE_MIRROR", c.Store.Mirror)
	c.Store.Redis.Addr = envString("REDIS_ADDR", c.Store.Redis.Addr)
	c.Store.Redis.Prefix = envString("REDIS_PREFIX", c.Store.Redis.Prefix)
	c.Store.S3.Bucket = envString("S3_BUCKET", c.Store.S3.Bucket)
	c.Store.S3.Prefix = envString("S3_PREFIX", c.Store.S3.Prefix)
	c.Store.S3.LocalEndpoint = envString("S3_LOCAL_ENDPOINT", c.Store.S3.LocalEndpoint)

	c.Numbering.Driver = envString("NUMBERING_DRIVER", c.Numbering.Driver)
	c.Numbering.DSN = envString("NUMBERING_DSN", c.Numbering.DSN)

	c.Tracing.Enabled = envBool("OTEL_ENABLED", c.Tracing.Enabled)
	c.Tracing.ServiceName = envString("OTEL_SERVICE_NAME", c.Tracing.ServiceName)
	c.Tracing.SampleRatio = envFloat("OTEL_SAMPLE_RATIO", c.Tracing.SampleRatio)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.Store.Backend {
	case "memory":
		if c.Store.Mirror {
			errs = append(errs, errors.New("store.mirror needs a remote backend"))
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required"))
		}
	case "s3":
		if c.Store.S3.Bucket == "" {
			errs = append(errs, errors.New("store.s3.bucket is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	switch c.Numbering.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown numbering driver %q", c.Numbering.Driver))
	}
	if c.Void.Secret == "" && c.Void.SecretHash == "" {
		errs = append(errs, errors.New("void.secret or void.secret_hash is required"))
	}
	for code, rate := range c.Rates {
		if !model.Currency(code).Valid() {
			errs = append(errs, fmt.Errorf("rates: unknown currency %q", code))
		} else if rate <= 0 {
			errs = append(errs, fmt.Errorf("rates: %s must be positive", code))
		}
	}
	return errors.Join(errs...)
}

// CurrencyRates converts the configured table, or returns nil when none is set.
func (c Config) CurrencyRates() map[model.Currency]float64 {
	if len(c.Rates) == 0 {
		return nil
	}
	out := make(map[model.Currency]float64, len(c.Rates))
	for k, v := range c.Rates {
		out[model.Currency(k)] = v
	}
	return out
}
