package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. INVESTLENS_SERVER_PORT.
const EnvPrefix = "INVESTLENS"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	About     AboutConfig     `yaml:"about" envconfig:"ABOUT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative paths are resolved against BaseDir.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportFile string `yaml:"report_file" envconfig:"REPORT_FILE"`
	ExportsDir string `yaml:"exports_dir" envconfig:"EXPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// DatasetConfig selects the investment records source and how rows are read.
type DatasetConfig struct {
	Source        string         `yaml:"source" envconfig:"SOURCE"`
	Path          string         `yaml:"path" envconfig:"FILE"`
	Sheet         string         `yaml:"sheet" envconfig:"SHEET"`
	ReferenceYear int            `yaml:"reference_year" envconfig:"REFERENCE_YEAR"`
	LoadOnStart   bool           `yaml:"load_on_start" envconfig:"LOAD_ON_START"`
	Columns       ColumnsConfig  `yaml:"columns" envconfig:"COLUMNS"`
	Sheets        SheetsConfig   `yaml:"sheets" envconfig:"SHEETS"`
	Postgres      PostgresConfig `yaml:"postgres" envconfig:"POSTGRES"`
}

// ColumnsConfig names the header of each required column.
type ColumnsConfig struct {
	BirthDate       string `yaml:"birth_date" envconfig:"BIRTH_DATE"`
	InvestmentYear  string `yaml:"investment_year" envconfig:"INVESTMENT_YEAR"`
	InvestmentMonth string `yaml:"investment_month" envconfig:"INVESTMENT_MONTH"`
	LandType        string `yaml:"land_type" envconfig:"LAND_TYPE"`
	UnitCount       string `yaml:"unit_count" envconfig:"UNIT_COUNT"`
	AmountPaid      string `yaml:"amount_paid" envconfig:"AMOUNT_PAID"`
}

// SheetsConfig points at a Google Sheet range.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"RANGE"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// PostgresConfig points at a PostgreSQL table.
type PostgresConfig struct {
	DSN   string `yaml:"dsn" envconfig:"DSN"`
	Table string `yaml:"table" envconfig:"TABLE"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	ServiceVersion string  `yaml:"service_version" envconfig:"SERVICE_VERSION"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// AboutConfig is the static developer profile served by /api/about.
type AboutConfig struct {
	Name     string            `yaml:"name" envconfig:"DEVELOPER_NAME" json:"name"`
	Headline string            `yaml:"headline" envconfig:"HEADLINE" json:"headline"`
	Photo    string            `yaml:"photo" envconfig:"PHOTO" json:"photo,omitempty"`
	Email    string            `yaml:"email" envconfig:"EMAIL" json:"email,omitempty"`
	Links    map[string]string `yaml:"links" envconfig:"LINKS" json:"links,omitempty"`
}

// Load builds the configuration from defaults, then config.yaml, then the
// environment. A .env file in the working directory is read into the
// environment first without overriding variables that are already set.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML path; an empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Variables that are unset leave the current value alone.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration and normalizes logging settings
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Dataset.ReferenceYear < 1900 || c.Dataset.ReferenceYear > 9999 {
		return fmt.Errorf("invalid dataset reference year: %d", c.Dataset.ReferenceYear)
	}

	switch strings.ToLower(c.Dataset.Source) {
	case "file", "sheets", "postgres":
		c.Dataset.Source = strings.ToLower(c.Dataset.Source)
	default:
		return fmt.Errorf("unknown dataset source %q", c.Dataset.Source)
	}

	// JSON only
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the first config file found, or "" when none exists
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportFile: "data/report.docx",
			ExportsDir: "data/exports",
			LogsDir:    "logs",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Dataset: DatasetConfig{
			Source:        "file",
			Path:          DefaultDatasetFile,
			ReferenceYear: DefaultReferenceYear,
			LoadOnStart:   true,
			Columns: ColumnsConfig{
				BirthDate:       "DOB",
				InvestmentYear:  "INVESTMENT YEAR",
				InvestmentMonth: "INVESTMENT MONTH",
				LandType:        "LAND",
				UnitCount:       "UNIT",
				AmountPaid:      "AMOUNT",
			},
			Sheets: SheetsConfig{
				Range: "A:Z",
			},
			Postgres: PostgresConfig{
				Table: "investments",
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "investlens",
			ServiceVersion: AppVersion,
			Environment:    "development",
			TracingEnabled: false,
			TraceExporter:  "stdout",
			SampleRate:     1.0,
			MetricsEnabled: true,
		},
		About: AboutConfig{
			Links: map[string]string{},
		},
	}
}
