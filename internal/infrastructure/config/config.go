package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	JWT         JWTConfig
	HTTP        HTTPConfig
	Event       EventConfig
	Telemetry   TelemetryConfig
	Integration IntegrationConfig
	Scheduler   SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        string // silent, error, warn, info
	SlowThreshold   time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// JWTConfig holds bearer token verification settings
type JWTConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
	// RevocationCheck consults the revocation list shared with the identity service in Redis
	RevocationCheck bool
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
	SwaggerEnabled  bool
	TrustedProxies  []string
}

// EventConfig holds idempotency and outbox relay settings. Entries that stay
// processing longer than RelayProcessingTimeout are taken over by the relay.
type EventConfig struct {
	IdempotencyEnabled     bool
	IdempotencyBackend     string // memory, redis
	IdempotencyTTL         time.Duration
	RelayEnabled           bool
	RelayBatchSize         int
	RelayPollInterval      time.Duration
	RelayPendingGrace      time.Duration
	RelayProcessingTimeout time.Duration
	CleanupEnabled         bool
	CleanupRetention       time.Duration
	CleanupInterval        time.Duration
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool
	ServiceName       string
	CollectorEndpoint string // OTLP gRPC endpoint, e.g. localhost:4317
	Insecure          bool
	SamplingRatio     float64
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	ProfilingEnabled  bool
	ProfilingEndpoint string // Pyroscope server address
}

// IntegrationAccountsConfig maps posting roles to ledger account codes
type IntegrationAccountsConfig struct {
	SalaryExpense           string
	SalaryPayable           string
	DeductionsPayable       string
	DepreciationExpense     string
	AccumulatedDepreciation string
}

// IntegrationConfig shapes documents generated from collaborator events
type IntegrationConfig struct {
	DefaultCurrency string
	InvoiceDueDays  int
	Accounts        IntegrationAccountsConfig
}

// SchedulerConfig holds the recurring job settings
type SchedulerConfig struct {
	Enabled bool
	// OverdueCheckTime is the UTC time of day (HH:MM) of the overdue invoice sweep
	OverdueCheckTime string
	JobTimeout       time.Duration
}

// Load reads config.toml from the working directory or ./config, then
// applies ERP_ prefixed environment variables (ERP_DATABASE_PASSWORD
// overrides database.password).
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return build(v)
}

// LoadFile reads configuration from an explicit file path
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "erp-accounting")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "erp")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("jwt.issuer", "erp-identity")
	v.SetDefault("jwt.leeway", 30*time.Second)
	v.SetDefault("jwt.revocation_check", false)

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.max_body_size", 1<<20)
	v.SetDefault("http.swagger_enabled", true)

	v.SetDefault("event.idempotency_enabled", true)
	v.SetDefault("event.idempotency_backend", "memory")
	v.SetDefault("event.idempotency_ttl", 24*time.Hour)
	v.SetDefault("event.relay_enabled", true)
	v.SetDefault("event.relay_batch_size", 100)
	v.SetDefault("event.relay_poll_interval", 5*time.Second)
	v.SetDefault("event.relay_pending_grace", 30*time.Second)
	v.SetDefault("event.relay_processing_timeout", 5*time.Minute)
	v.SetDefault("event.cleanup_enabled", true)
	v.SetDefault("event.cleanup_retention", 7*24*time.Hour)
	v.SetDefault("event.cleanup_interval", time.Hour)

	v.SetDefault("telemetry.service_name", "erp-accounting")
	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.metrics_interval", 15*time.Second)
	v.SetDefault("telemetry.profiling_endpoint", "http://localhost:4040")

	v.SetDefault("integration.default_currency", "USD")
	v.SetDefault("integration.invoice_due_days", 30)
	v.SetDefault("integration.accounts.salary_expense", "6100")
	v.SetDefault("integration.accounts.salary_payable", "2100")
	v.SetDefault("integration.accounts.deductions_payable", "2150")
	v.SetDefault("integration.accounts.depreciation_expense", "6200")
	v.SetDefault("integration.accounts.accumulated_depreciation", "1590")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.overdue_check_time", "01:00")
	v.SetDefault("scheduler.job_timeout", 10*time.Minute)
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			Issuer:          v.GetString("jwt.issuer"),
			Leeway:          v.GetDuration("jwt.leeway"),
			RevocationCheck: v.GetBool("jwt.revocation_check"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			SwaggerEnabled:  v.GetBool("http.swagger_enabled"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		Event: EventConfig{
			IdempotencyEnabled:     v.GetBool("event.idempotency_enabled"),
			IdempotencyBackend:     v.GetString("event.idempotency_backend"),
			IdempotencyTTL:         v.GetDuration("event.idempotency_ttl"),
			RelayEnabled:           v.GetBool("event.relay_enabled"),
			RelayBatchSize:         v.GetInt("event.relay_batch_size"),
			RelayPollInterval:      v.GetDuration("event.relay_poll_interval"),
			RelayPendingGrace:      v.GetDuration("event.relay_pending_grace"),
			RelayProcessingTimeout: v.GetDuration("event.relay_processing_timeout"),
			CleanupEnabled:         v.GetBool("event.cleanup_enabled"),
			CleanupRetention:       v.GetDuration("event.cleanup_retention"),
			CleanupInterval:        v.GetDuration("event.cleanup_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			ServiceName:       v.GetString("telemetry.service_name"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			Insecure:          v.GetBool("telemetry.insecure"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingEndpoint: v.GetString("telemetry.profiling_endpoint"),
		},
		Integration: IntegrationConfig{
			DefaultCurrency: v.GetString("integration.default_currency"),
			InvoiceDueDays:  v.GetInt("integration.invoice_due_days"),
			Accounts: IntegrationAccountsConfig{
				SalaryExpense:           v.GetString("integration.accounts.salary_expense"),
				SalaryPayable:           v.GetString("integration.accounts.salary_payable"),
				DeductionsPayable:       v.GetString("integration.accounts.deductions_payable"),
				DepreciationExpense:     v.GetString("integration.accounts.depreciation_expense"),
				AccumulatedDepreciation: v.GetString("integration.accounts.accumulated_depreciation"),
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:          v.GetBool("scheduler.enabled"),
			OverdueCheckTime: v.GetString("scheduler.overdue_check_time"),
			JobTimeout:       v.GetDuration("scheduler.job_timeout"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns must be between 0 and database.max_open_conns (%d)", c.Database.MaxOpenConns)
	}
	switch c.Event.IdempotencyBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("event.idempotency_backend must be memory or redis, got %q", c.Event.IdempotencyBackend)
	}
	if c.Event.RelayBatchSize <= 0 {
		return fmt.Errorf("event.relay_batch_size must be positive")
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Integration.InvoiceDueDays < 0 {
		return fmt.Errorf("integration.invoice_due_days cannot be negative")
	}
	if len(c.Integration.DefaultCurrency) != 3 {
		return fmt.Errorf("integration.default_currency must be a 3-letter ISO code, got %q", c.Integration.DefaultCurrency)
	}
	if _, err := time.Parse("15:04", c.Scheduler.OverdueCheckTime); err != nil {
		return fmt.Errorf("scheduler.overdue_check_time must be HH:MM: %w", err)
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection URL with escaped credentials
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
