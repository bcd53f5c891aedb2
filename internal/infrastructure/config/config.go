// Package config loads service configuration from an optional config file,
// STOCKBAL_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STOCKBAL_DATABASE_DSN.
const EnvPrefix = "STOCKBAL"

// Config holds all configuration for the service.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Log       LogConfig
	Report    ReportConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application identity.
type AppConfig struct {
	Name string
	Env  string // development, production
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DatabaseConfig holds the PostgreSQL pool settings.
type DatabaseConfig struct {
	DSN               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	// MigrateOnStart applies the embedded schema migrations before serving.
	MigrateOnStart bool
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string // debug, info, warn, error
	OutputPaths []string
}

// ReportConfig holds stock balance report settings.
type ReportConfig struct {
	// Precision is the number of decimal places for rounding.
	Precision int32
	// DimensionFields are the inventory dimension columns of the stock ledger.
	DimensionFields []string
	// DefaultCurrency is used for companies without a default currency.
	DefaultCurrency string
	// StatementTimeout bounds each query of a report run.
	StatementTimeout time.Duration
	// CompressThreshold is the snapshot payload size above which zstd is used.
	CompressThreshold int
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	ServiceName string
}

// Load reads configuration. Flags, when given, override file and
// environment values; flag names use the dotted key, e.g. "database.dsn".
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/stockbalance")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			DSN:               v.GetString("database.dsn"),
			MaxConns:          v.GetInt32("database.max_conns"),
			MinConns:          v.GetInt32("database.min_conns"),
			MaxConnLifetime:   v.GetDuration("database.max_conn_lifetime"),
			MaxConnIdleTime:   v.GetDuration("database.max_conn_idle_time"),
			HealthCheckPeriod: v.GetDuration("database.health_check_period"),
			MigrateOnStart:    v.GetBool("database.migrate_on_start"),
		},
		HTTP: HTTPConfig{
			Port:            v.GetString("http.port"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			OutputPaths: v.GetStringSlice("log.output_paths"),
		},
		Report: ReportConfig{
			Precision:         v.GetInt32("report.precision"),
			DimensionFields:   splitList(v.GetStringSlice("report.dimension_fields")),
			DefaultCurrency:   v.GetString("report.default_currency"),
			StatementTimeout:  v.GetDuration("report.statement_timeout"),
			CompressThreshold: v.GetInt("report.compress_threshold"),
		},
		Telemetry: TelemetryConfig{
			ServiceName: v.GetString("telemetry.service_name"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "stockbalance")
	v.SetDefault("app.env", "development")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.health_check_period", time.Minute)
	v.SetDefault("database.migrate_on_start", false)

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("report.precision", 3)
	v.SetDefault("report.dimension_fields", []string{})
	v.SetDefault("report.default_currency", "")
	v.SetDefault("report.statement_timeout", 60*time.Second)
	v.SetDefault("report.compress_threshold", 10*1024)

	v.SetDefault("telemetry.service_name", "stockbalance")
}

// splitList accepts both repeated values and comma-separated strings, as
// environment variables carry lists.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func (c *Config) validate() error {
	var errs []error

	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Errorf("database.min_conns (%d) exceeds database.max_conns (%d)",
			c.Database.MinConns, c.Database.MaxConns))
	}
	if c.App.Env != "development" && c.App.Env != "production" {
		errs = append(errs, fmt.Errorf("app.env must be development or production, got %q", c.App.Env))
	}
	if c.Report.Precision < 0 || c.Report.Precision > 9 {
		errs = append(errs, fmt.Errorf("report.precision must be between 0 and 9, got %d", c.Report.Precision))
	}
	for _, f := range c.Report.DimensionFields {
		if !identifierPattern.MatchString(f) {
			errs = append(errs, fmt.Errorf("report.dimension_fields: invalid field name %q", f))
		}
	}
	if c.Report.StatementTimeout < 0 {
		errs = append(errs, errors.New("report.statement_timeout must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
