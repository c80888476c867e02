package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/Shin-zuo/LL-AccountingSystem-sub000/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, ":9091", cfg.WorkerMetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.TaxFilingLockTTL)
	assert.Equal(t, "0.25", cfg.TaxDefaultRate.String())
	assert.Equal(t, "0.02", cfg.TaxDefaultMcitRate.String())
	assert.False(t, cfg.BalanceSheetStrict)
	assert.False(t, cfg.IsProduction())

	roles := cfg.AccountRoles()
	assert.Equal(t, "1010", roles.CashCode)
	assert.Equal(t, "3200", roles.RetainedEarningsCode)
	assert.Equal(t, "4000", roles.FallbackRevenueCode)
	assert.Equal(t, "6900", roles.FallbackExpenseCode)

	rates := cfg.TaxRates()
	assert.True(t, rates.TaxRate.Equal(cfg.TaxDefaultRate))
	assert.True(t, rates.McitRate.Equal(cfg.TaxDefaultMcitRate))
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("ACCOUNT_CASH_CODE", "1000")
	t.Setenv("TAX_DEFAULT_RATE", "0.20")
	t.Setenv("BALANCE_SHEET_STRICT", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "1000", cfg.AccountRoles().CashCode)
	assert.Equal(t, "0.2", cfg.TaxDefaultRate.String())
	assert.True(t, cfg.BalanceSheetStrict)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"rate above one":      {"TAX_DEFAULT_RATE", "1.5"},
		"negative mcit":       {"TAX_DEFAULT_MCIT_RATE", "-0.01"},
		"missing cash role":   {"ACCOUNT_CASH_CODE", ""},
		"zero lock ttl":       {"TAX_FILING_LOCK_TTL", "0s"},
		"unparseable decimal": {"TAX_DEFAULT_RATE", "abc"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestInTestModeFollowsEnvironment(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	assert.False(t, InTestMode())

	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())
	assert.True(t, SkipStartup("test"))
}

func TestLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "production", LogFormat: "JSON"})
	logger.Debug("hidden")
	logger.Info("shown", slog.Int("n", 1))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "production", line["env"])
	assert.NotNil(t, line["source"])

	assert.Equal(t, slog.LevelDebug, logLevel(&Config{AppEnv: "development"}))
	assert.Equal(t, slog.LevelWarn, logLevel(&Config{AppEnv: "development", LogLevel: "warn"}))
	assert.Equal(t, slog.LevelInfo, logLevel(&Config{AppEnv: "production", LogLevel: "loud"}))
}
