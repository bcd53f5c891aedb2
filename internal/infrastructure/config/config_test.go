package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOCKBAL_DATABASE_DSN", "postgres://localhost/erp")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "stockbalance", cfg.App.Name)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "postgres://localhost/erp", cfg.Database.DSN)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.False(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, int32(3), cfg.Report.Precision)
	assert.Empty(t, cfg.Report.DimensionFields)
	assert.Equal(t, 60*time.Second, cfg.Report.StatementTimeout)
	assert.Equal(t, 10*1024, cfg.Report.CompressThreshold)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STOCKBAL_DATABASE_DSN", "postgres://db/erp")
	t.Setenv("STOCKBAL_APP_ENV", "production")
	t.Setenv("STOCKBAL_REPORT_PRECISION", "2")
	t.Setenv("STOCKBAL_REPORT_DIMENSION_FIELDS", "project, cost_center")
	t.Setenv("STOCKBAL_REPORT_DEFAULT_CURRENCY", "EUR")
	t.Setenv("STOCKBAL_DATABASE_MIGRATE_ON_START", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, int32(2), cfg.Report.Precision)
	assert.Equal(t, []string{"project", "cost_center"}, cfg.Report.DimensionFields)
	assert.Equal(t, "EUR", cfg.Report.DefaultCurrency)
	assert.True(t, cfg.Database.MigrateOnStart)
}

func TestLoad_ConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stockbalance.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
dsn = "postgres://file/erp"

[http]
port = "9000"

[report]
dimension_fields = ["project"]
`), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "config file")
	flags.String("http.port", "8080", "port")
	require.NoError(t, flags.Parse([]string{"--config", path, "--http.port", "9100"}))

	cfg, err := Load(flags)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/erp", cfg.Database.DSN)
	assert.Equal(t, "9100", cfg.HTTP.Port)
	assert.Equal(t, []string{"project"}, cfg.Report.DimensionFields)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing dsn",
			env:  map[string]string{},
			want: "database.dsn is required",
		},
		{
			name: "bad precision",
			env:  map[string]string{"STOCKBAL_DATABASE_DSN": "x", "STOCKBAL_REPORT_PRECISION": "12"},
			want: "report.precision",
		},
		{
			name: "bad dimension",
			env:  map[string]string{"STOCKBAL_DATABASE_DSN": "x", "STOCKBAL_REPORT_DIMENSION_FIELDS": "Project;drop"},
			want: "invalid field name",
		},
		{
			name: "bad env",
			env:  map[string]string{"STOCKBAL_DATABASE_DSN": "x", "STOCKBAL_APP_ENV": "staging"},
			want: "app.env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
