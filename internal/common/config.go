package common

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/joseph-ayodele/shot-tracker/constants"
)

// Config holds all application configuration. It is built once at startup
// and passed explicitly into constructors; nothing mutates it afterwards.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Quota      QuotaConfig      `koanf:"quota"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Extraction ExtractionConfig `koanf:"extraction"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// QuotaConfig holds the daily limits per identity class. When RedisURL is
// empty the tracker falls back to the in-process store.
type QuotaConfig struct {
	DailyLimitAuth int    `koanf:"daily_limit_auth"`
	DailyLimitAnon int    `koanf:"daily_limit_anon"`
	RedisURL       string `koanf:"redis_url"`
}

// LedgerConfig selects and configures the shot ledger backend.
type LedgerConfig struct {
	Backend    string `koanf:"backend"` // memory | sqlite | postgres
	SQLitePath string `koanf:"sqlite_path"`

	DSN             string `koanf:"dsn"`
	MaxConns        int32  `koanf:"max_conns"`
	MinConns        int32  `koanf:"min_conns"`
	DialTimeoutMS   int    `koanf:"dial_timeout_ms"`
	MaxConnLifetime int    `koanf:"max_conn_lifetime_min"`
}

// ExtractionConfig holds the global time budget and per-provider settings.
type ExtractionConfig struct {
	BudgetMS int            `koanf:"budget_ms"`
	Gemini   ProviderConfig `koanf:"gemini"`
	OpenAI   ProviderConfig `koanf:"openai"`
}

// ProviderConfig configures one remote extraction service. A missing APIKey
// means the variant is unavailable for the process lifetime.
type ProviderConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

func (e ExtractionConfig) Budget() time.Duration {
	return time.Duration(e.BudgetMS) * time.Millisecond
}

func (l LedgerConfig) DialTimeout() time.Duration {
	return time.Duration(l.DialTimeoutMS) * time.Millisecond
}

// Default returns the built-in configuration. Provider keys fall back to the
// conventional env vars so a bare `GEMINI_API_KEY=... shotsd` still works.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Quota: QuotaConfig{
			DailyLimitAuth: constants.DefaultDailyLimitAuth,
			DailyLimitAnon: constants.DefaultDailyLimitAnon,
		},
		Ledger: LedgerConfig{
			Backend:         "sqlite",
			SQLitePath:      "./data/shots.db",
			MaxConns:        10,
			MinConns:        2,
			DialTimeoutMS:   3000,
			MaxConnLifetime: 30,
		},
		Extraction: ExtractionConfig{
			BudgetMS: constants.DefaultBudgetMS,
			Gemini: ProviderConfig{
				APIKey: os.Getenv("GEMINI_API_KEY"),
			},
			OpenAI: ProviderConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
			},
		},
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if SHOTS_CONFIG is set
//  3. env (prefix SHOTS_, double underscore nests: SHOTS_QUOTA__REDIS_URL)
func Load() (*Config, error) {
	base := Default()

	k := koanf.New(".")

	if path := os.Getenv("SHOTS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, WrapError(err, "load config file")
		}
	}

	envProvider := env.Provider("SHOTS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "SHOTS_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, WrapError(err, "load env config")
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, WrapError(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return WrapError(ErrInvalidInput, "server.addr must not be empty")
	}
	if c.Quota.DailyLimitAuth <= 0 || c.Quota.DailyLimitAnon <= 0 {
		return WrapError(ErrInvalidInput, "quota limits must be positive")
	}
	if c.Extraction.BudgetMS <= 0 {
		return WrapError(ErrInvalidInput, "extraction.budget_ms must be positive")
	}
	switch c.Ledger.Backend {
	case "memory":
	case "sqlite":
		if c.Ledger.SQLitePath == "" {
			return WrapError(ErrInvalidInput, "ledger.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if c.Ledger.DSN == "" {
			return WrapError(ErrInvalidInput, "ledger.dsn is required for the postgres backend")
		}
	default:
		return WrapError(ErrInvalidInput, "ledger.backend must be one of memory, sqlite, postgres")
	}
	return nil
}
