// Package config loads the pool engine configuration.
//
// Values come from config.yaml (searched in "." and "./config"), overridden by
// environment variables prefixed POOLD_ with "." replaced by "_", e.g.
// POOLD_POOL_FEE_RATE=0.05. A .env file, if present, is loaded first.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/trustpooler/pool-engine/internal/descriptor"
	"github.com/trustpooler/pool-engine/internal/pool"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Pool     PoolConfig     `mapstructure:"pool"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Books    []BookConfig   `mapstructure:"books"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"` // debug | info | warn | error
}

// PoolConfig holds the defaults applied to every book.
type PoolConfig struct {
	FeeRate        float64 `mapstructure:"fee_rate"`
	PoolAccount    string  `mapstructure:"pool_account"`
	ManagerAccount string  `mapstructure:"manager_account"`
}

// DatabaseConfig holds the settlement journal connection. Empty URL selects
// the in-memory journal.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig holds the journal cache connection. Only used with a database.
type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// LimitsConfig bounds pro-forma quotes. Zero disables a limit.
type LimitsConfig struct {
	MaxQuoteAmount      float64 `mapstructure:"max_quote_amount"`
	MaxCategoryExposure float64 `mapstructure:"max_category_exposure"`
}

// BookConfig seeds one pool.
type BookConfig struct {
	ID      string        `mapstructure:"id"`
	Kind    string        `mapstructure:"kind"`     // "category" | "directional"
	FeeRate *float64      `mapstructure:"fee_rate"` // nil → pool.fee_rate
	Stakes  []StakeConfig `mapstructure:"stakes"`
}

// StakeConfig is one seeded stake. Event is a descriptor such as "default"
// or "LONG@55".
type StakeConfig struct {
	Event  string  `mapstructure:"event"`
	Amount float64 `mapstructure:"amount"`
	Owner  string  `mapstructure:"owner"`
}

// FeeRateFor returns the fee rate of a book, falling back to the pool default.
func (c *Config) FeeRateFor(b BookConfig) decimal.Decimal {
	if b.FeeRate != nil {
		return decimal.NewFromFloat(*b.FeeRate)
	}
	return decimal.NewFromFloat(c.Pool.FeeRate)
}

// CheckAmount rejects stake amounts that are negative or not finite.
func CheckAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: %v", pool.ErrInvalidAmount, amount)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("pool.fee_rate", 0.03)
	v.SetDefault("pool.pool_account", "Pool_Account_Address")
	v.SetDefault("pool.manager_account", "Pool_Manager_Address")
	v.SetDefault("redis.ttl", 30*time.Second)
	v.SetDefault("limits.max_quote_amount", 0)
	v.SetDefault("limits.max_category_exposure", 0)
}

// Load reads configuration. path may name a config file explicitly; when it
// is empty the default search paths are used and a missing file is not an
// error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("POOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	if c.Pool.FeeRate < 0 || c.Pool.FeeRate >= 1 {
		errs = append(errs, fmt.Errorf("pool.fee_rate %v must be in [0, 1)", c.Pool.FeeRate))
	}

	seen := make(map[string]bool, len(c.Books))
	for i, b := range c.Books {
		if b.ID == "" {
			errs = append(errs, fmt.Errorf("books[%d]: id is required", i))
		} else if seen[b.ID] {
			errs = append(errs, fmt.Errorf("books[%d]: duplicate id %q", i, b.ID))
		}
		seen[b.ID] = true

		if err := descriptor.ValidateKind(b.Kind); err != nil {
			errs = append(errs, fmt.Errorf("books[%d]: %w", i, err))
		}
		if b.FeeRate != nil && (*b.FeeRate < 0 || *b.FeeRate >= 1) {
			errs = append(errs, fmt.Errorf("books[%d]: fee_rate %v must be in [0, 1)", i, *b.FeeRate))
		}
		for j, sc := range b.Stakes {
			if err := CheckAmount(sc.Amount); err != nil {
				errs = append(errs, fmt.Errorf("books[%d].stakes[%d]: %w", i, j, err))
			}
		}
	}

	return errors.Join(errs...)
}
