package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/planctl/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := setHome(t)

	cfg, v, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, BackendTOML, cfg.State.Backend)
	assert.Equal(t, filepath.Join(home, ".planctl", "state.toml"), cfg.State.Path)
	assert.Equal(t, cfg.State.Path, v.GetString("state.path"))
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)

	pricing, err := cfg.ResolvePricing()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPricing(), pricing)
}

func TestLoadConfigFileAndEnvPrecedence(t *testing.T) {
	home := setHome(t)
	dir := filepath.Join(home, ".planctl")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[state]
backend = "sqlite"

[log]
level = "debug"
format = "json"

[pricing]
seat_price = "12.50"
min_team_seats = 3

[[pricing.pro_tiers]]
name = "Pro Solo"
credits = 800
price = 19.99

[[pricing.extra_credit_bundles]]
credits = 2000
price = "18"
`), 0o600))
	t.Setenv("PLANCTL_LOG_LEVEL", "info")
	t.Setenv("PLANCTL_PRICING_INITIAL_FREE_CREDITS", "300")

	cfg, _, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.State.Backend)
	assert.Equal(t, filepath.Join(dir, "state.db"), cfg.State.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	pricing, err := cfg.ResolvePricing()
	require.NoError(t, err)
	assert.Equal(t, "12.5", pricing.SeatPrice.String())
	assert.Equal(t, 3, pricing.MinTeamSeats)
	assert.Equal(t, int64(300), pricing.InitialFreeCredits)
	require.Len(t, pricing.ProTiers, 1)
	assert.Equal(t, "Pro Solo", pricing.ProTiers[0].Name)
	assert.Equal(t, "19.99", pricing.ProTiers[0].Price.String())
	assert.Equal(t, "199.9", pricing.ProTiers[0].AnnualPrice.String())
	require.Len(t, pricing.ExtraCreditBundles, 1)
	assert.True(t, pricing.ExtraCreditBundles[0].Price.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, domain.DefaultPricing().TeamsTiers, pricing.TeamsTiers)
}

func TestLoadEnvFile(t *testing.T) {
	setHome(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PLANCTL_SERVER_ADDR=127.0.0.1:9999\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PLANCTL_SERVER_ADDR") })

	cfg, _, err := Load(LoadOptions{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env"), envFile}})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown backend", env: map[string]string{"PLANCTL_STATE_BACKEND": "postgres"}, wantErr: `unknown state backend "postgres"`},
		{name: "bad log format", env: map[string]string{"PLANCTL_LOG_FORMAT": "xml"}, wantErr: `unknown log format "xml"`},
		{name: "bad log level", env: map[string]string{"PLANCTL_LOG_LEVEL": "loud"}, wantErr: "invalid log level"},
		{name: "bad decimal", content: "[pricing]\nseat_price = \"ten\"\n", wantErr: "decode config"},
		{name: "malformed file", content: "[state\n", wantErr: "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setHome(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			opts := LoadOptions{}
			if tt.content != "" {
				opts.ConfigFile = filepath.Join(t.TempDir(), "config.toml")
				require.NoError(t, os.WriteFile(opts.ConfigFile, []byte(tt.content), 0o600))
			}

			_, _, err := Load(opts)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadExplicitMissingConfigFails(t *testing.T) {
	setHome(t)

	_, _, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "nope.toml")})
	require.Error(t, err)
}

func TestPricingOverridesRejectInvalidCatalogue(t *testing.T) {
	t.Parallel()

	days := 0
	_, err := PricingOverrides{BillingCycleDays: &days}.Apply(domain.DefaultPricing())
	require.Error(t, err)
	assert.ErrorContains(t, err, "billing cycle days must be positive")
}
