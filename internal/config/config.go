// Package config loads planctl settings from ~/.planctl/config.toml, an
// optional .env file and PLANCTL_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/planctl/internal/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "PLANCTL"

	BackendTOML   = "toml"
	BackendSQLite = "sqlite"

	configDirName  = ".planctl"
	configFileName = "config.toml"
)

type Config struct {
	State   StateConfig      `mapstructure:"state"`
	Log     LogConfig        `mapstructure:"log"`
	Server  ServerConfig     `mapstructure:"server"`
	Pricing PricingOverrides `mapstructure:"pricing"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// PricingOverrides holds the catalogue values a user may replace. Nil and
// empty fields keep the built-in pricing.
type PricingOverrides struct {
	SeatPrice                 *decimal.Decimal `mapstructure:"seat_price"`
	InitialFreeCredits        *int64           `mapstructure:"initial_free_credits"`
	MinAvgCreditsPerSeat      *int64           `mapstructure:"min_avg_credits_per_seat"`
	MaxFreeCreditsOnDowngrade *int64           `mapstructure:"max_free_credits_on_downgrade"`
	BillingCycleDays          *int             `mapstructure:"billing_cycle_days"`
	AnnualBillingCycleDays    *int             `mapstructure:"annual_billing_cycle_days"`
	MinTeamSeats              *int             `mapstructure:"min_team_seats"`
	ProTiers                  []ProTierConfig  `mapstructure:"pro_tiers"`
	TeamsTiers                []TierConfig     `mapstructure:"teams_tiers"`
	CreditBundles             []BundleConfig   `mapstructure:"credit_bundles"`
	ExtraCreditBundles        []BundleConfig   `mapstructure:"extra_credit_bundles"`
}

type ProTierConfig struct {
	Name        string          `mapstructure:"name"`
	Credits     int64           `mapstructure:"credits"`
	Price       decimal.Decimal `mapstructure:"price"`
	AnnualPrice decimal.Decimal `mapstructure:"annual_price"`
}

type TierConfig struct {
	Name    string          `mapstructure:"name"`
	Credits int64           `mapstructure:"credits"`
	Price   decimal.Decimal `mapstructure:"price"`
}

type BundleConfig struct {
	Credits int64           `mapstructure:"credits"`
	Price   decimal.Decimal `mapstructure:"price"`
}

type LoadOptions struct {
	// ConfigFile overrides the default config location. A missing explicit
	// file is an error; a missing default file is not.
	ConfigFile string
	// EnvFiles are loaded with godotenv before the environment is read.
	// Missing files are skipped.
	EnvFiles []string
}

// Load resolves the configuration. The returned viper instance carries the
// resolved keys for adapters that read it directly.
func Load(opts LoadOptions) (Config, *viper.Viper, error) {
	for _, file := range opts.EnvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, nil, fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, nil, fmt.Errorf("resolve home directory: %w", err)
	}
	baseDir := filepath.Join(homeDir, configDirName)

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	for _, key := range []string{
		"pricing.seat_price",
		"pricing.initial_free_credits",
		"pricing.min_avg_credits_per_seat",
		"pricing.max_free_credits_on_downgrade",
		"pricing.billing_cycle_days",
		"pricing.annual_billing_cycle_days",
		"pricing.min_team_seats",
	} {
		_ = v.BindEnv(key)
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(baseDir, configFileName)
		if _, err := os.Stat(configFile); err != nil {
			configFile = ""
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return Config{}, nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.State.Backend = strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	if cfg.State.Path == "" {
		cfg.State.Path = defaultStatePath(baseDir, cfg.State.Backend)
	}
	v.Set("state.path", cfg.State.Path)

	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}

	return cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("state.backend", BackendTOML)
	v.SetDefault("state.path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "auto")
	v.SetDefault("server.addr", "127.0.0.1:8080")
}

func defaultStatePath(baseDir, backend string) string {
	if backend == BackendSQLite {
		return filepath.Join(baseDir, "state.db")
	}
	return filepath.Join(baseDir, "state.toml")
}

func (c Config) Validate() error {
	switch c.State.Backend {
	case BackendTOML, BackendSQLite:
	default:
		return fmt.Errorf("unknown state backend %q", c.State.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server address is empty")
	}
	return nil
}

// ResolvePricing applies the overrides on top of domain.DefaultPricing.
func (c Config) ResolvePricing() (domain.Pricing, error) {
	return c.Pricing.Apply(domain.DefaultPricing())
}
