package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:         "8080",
		Env:          "production",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		JWTTTLHours:  24,
		DBDriver:     "postgres",
		DBPassword:   "secure-password",
		DBSSLMode:    "require",
		DBSchemaMode: "sql",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid production", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"default secret in production", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret in development", func(c *Config) { c.Env = "development"; c.JWTSecret = "short" }, false},
		{"sqlite in production", func(c *Config) { c.DBDriver = "sqlite" }, true},
		{"sqlite in development", func(c *Config) { c.Env = "development"; c.DBDriver = "sqlite" }, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "hybrid" }, true},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"ssl disabled in production", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"zero token ttl", func(c *Config) { c.JWTTTLHours = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("PORT", "9999")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, 24, c.JWTTTLHours)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_MissingProfileFails(t *testing.T) {
	defer viper.Reset()
	defer os.Unsetenv("APP_ENV")

	t.Setenv("APP_ENV", "staging-does-not-exist")
	_, err := LoadConfig()
	assert.Error(t, err)
}
