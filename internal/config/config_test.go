package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
api:
  environment: test
  port: "9090"
  jwt_signing_key: secret
payment:
  processor: mock
  creation_fee: "12.50"
  update_fee: "3"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	conf, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "test", conf.API.Environment)
	assert.Equal(t, "9090", conf.API.Port)
	assert.Equal(t, 72*time.Hour, conf.API.TokenTTL)
	assert.True(t, decimal.RequireFromString("12.5").Equal(conf.Payment.CreationFeeAmount()))
	assert.True(t, decimal.NewFromInt(3).Equal(conf.Payment.UpdateFeeAmount()))
	assert.Equal(t, 30*time.Minute, conf.Payment.PendingTTL)
	assert.Equal(t, 5*time.Minute, conf.Housekeeping.Interval)
	assert.Equal(t, "usd", conf.Stripe.Currency)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONTEST_API_PORT", "7070")

	conf, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Equal(t, "7070", conf.API.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing signing key", "payment:\n  processor: mock\n"},
		{"bad fee", "api:\n  jwt_signing_key: k\npayment:\n  creation_fee: ten\n"},
		{"stripe without key", "api:\n  jwt_signing_key: k\npayment:\n  processor: stripe\n"},
		{"unknown processor", "api:\n  jwt_signing_key: k\npayment:\n  processor: paypal\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
