package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoadFrom tests defaults, the YAML overlay and environment precedence
func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, "file", cfg.Dataset.Source)
				assert.Equal(t, 2025, cfg.Dataset.ReferenceYear)
				assert.Equal(t, "DOB", cfg.Dataset.Columns.BirthDate)
				assert.Equal(t, "AMOUNT", cfg.Dataset.Columns.AmountPaid)
				assert.Equal(t, "investlens", cfg.Telemetry.ServiceName)
			},
		},
		{
			name: "file values override defaults",
			file: `
server:
  port: 9090
dataset:
  path: /srv/data/umera.xlsx
  reference_year: 2026
  columns:
    amount_paid: PAID
about:
  name: Data Team
  links:
    github: https://github.com/example
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "/srv/data/umera.xlsx", cfg.Dataset.Path)
				assert.Equal(t, 2026, cfg.Dataset.ReferenceYear)
				assert.Equal(t, "PAID", cfg.Dataset.Columns.AmountPaid)
				assert.Equal(t, "DOB", cfg.Dataset.Columns.BirthDate)
				assert.Equal(t, "Data Team", cfg.About.Name)
				assert.Equal(t, "https://github.com/example", cfg.About.Links["github"])
			},
		},
		{
			name: "environment overrides file",
			file: "server:\n  port: 9090\ndataset:\n  reference_year: 2026\n",
			env: map[string]string{
				"INVESTLENS_SERVER_PORT":             "7070",
				"INVESTLENS_DATASET_SOURCE":          "POSTGRES",
				"INVESTLENS_DATASET_POSTGRES_DSN":    "postgres://localhost/invest",
				"INVESTLENS_SECURITY_ALLOWED_ORIGINS": "http://a.test,http://b.test",
				"INVESTLENS_LOGGING_LEVEL":           "debug",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 2026, cfg.Dataset.ReferenceYear)
				assert.Equal(t, "postgres", cfg.Dataset.Source)
				assert.Equal(t, "postgres://localhost/invest", cfg.Dataset.Postgres.DSN)
				assert.Equal(t, "investments", cfg.Dataset.Postgres.Table)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid env value",
			env:     map[string]string{"INVESTLENS_SERVER_PORT": "not-a-number"},
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			file:    "server: [unclosed",
			wantErr: true,
		},
		{
			name:    "unknown source rejected",
			env:     map[string]string{"INVESTLENS_DATASET_SOURCE": "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "invalid server port"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: "read timeout"},
		{name: "write timeout", mutate: func(c *Config) { c.Server.WriteTimeout = -1 }, wantErr: "write timeout"},
		{name: "cors without origins", mutate: func(c *Config) { c.Security.AllowedOrigins = nil }, wantErr: "allowed origin"},
		{name: "cors disabled without origins", mutate: func(c *Config) {
			c.Security.EnableCORS = false
			c.Security.AllowedOrigins = nil
		}},
		{name: "reference year too small", mutate: func(c *Config) { c.Dataset.ReferenceYear = 0 }, wantErr: "reference year"},
		{name: "unknown source", mutate: func(c *Config) { c.Dataset.Source = "s3" }, wantErr: "unknown dataset source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateNormalizesLogging(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "syslog"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)

	cfg.Logging.Output = "console"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "console", cfg.Logging.Output)
}

func TestGetConfigFilePathFromEnv(t *testing.T) {
	t.Setenv("INVESTLENS_CONFIG_FILE", "/etc/investlens/config.yaml")
	assert.Equal(t, "/etc/investlens/config.yaml", getConfigFilePath())
}
