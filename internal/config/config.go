// Package config provides centralized configuration management for the report
// server and CLI. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	DataSource DataSourceConfig
	Catalog    CatalogConfig
	Render     RenderConfig
	Convert    ConvertConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 3m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"3m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds one report generation, conversion included (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m"`

	// RateLimit is the number of requests allowed per client IP per minute; 0 disables it (default: 100)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100"`
}

// DataSourceConfig holds data source connection settings.
type DataSourceConfig struct {
	// URL is the default data source locator (required).
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// Driver selects the data source implementation: pgx or sql (default: pgx)
	Driver string `env:"DATASOURCE_DRIVER" default:"pgx"`

	// SQLDriver is the database/sql driver name used when Driver is sql (default: pgx)
	SQLDriver string `env:"DATASOURCE_SQL_DRIVER" default:"pgx"`

	// ManifestProcedure fetches the manifest header (default: GetManifestByManifestID)
	ManifestProcedure string `env:"MANIFEST_PROCEDURE" default:"GetManifestByManifestID"`

	// ConnectTimeout bounds opening a connection (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`

	// MaxConns is the maximum number of connections per pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// CatalogConfig locates report descriptors and templates.
type CatalogConfig struct {
	// Path is a YAML catalog overriding the built-in one (default: built-in)
	Path string `env:"CATALOG_PATH"`

	// TemplateDir is the root of the markup templates (default: templates)
	TemplateDir string `env:"TEMPLATE_DIR" default:"templates"`
}

// RenderConfig holds layout settings shared by all reports.
type RenderConfig struct {
	// Margin is the page margin for fixed-layout output, as a CSS length (default: 12mm)
	Margin string `env:"RENDER_MARGIN" default:"12mm"`

	// TimeZone is used for print timestamps (default: Asia/Jerusalem)
	TimeZone string `env:"RENDER_TIMEZONE" default:"Asia/Jerusalem"`

	// FontSize is the spreadsheet font size in points (default: 10)
	FontSize int `env:"SHEET_FONT_SIZE" default:"10"`
}

// ConvertConfig holds the external converter and printer commands.
type ConvertConfig struct {
	// ChromePath is the headless browser used for HTML to PDF (default: chromium)
	ChromePath string `env:"CHROME_PATH" default:"chromium"`

	// LibreOfficePath converts spreadsheets to PDF (default: soffice)
	LibreOfficePath string `env:"LIBREOFFICE_PATH" default:"soffice"`

	// PrintCommand submits a PDF to a printer (default: lp)
	PrintCommand string `env:"PRINT_COMMAND" default:"lp"`

	// PrintArgs are the print command arguments; {printer} and {file} are substituted
	PrintArgs []string `env:"PRINT_ARGS" default:"-d,{printer},{file}"`

	// StatusCommand checks that a printer exists and is ready (default: lpstat)
	StatusCommand string `env:"PRINTER_STATUS_COMMAND" default:"lpstat"`

	// StatusArgs are the status command arguments; {printer} is substituted
	StatusArgs []string `env:"PRINTER_STATUS_ARGS" default:"-p,{printer}"`

	// TempDir is where conversion artifacts are staged (default: OS temp dir)
	TempDir string `env:"CONVERT_TEMP_DIR"`

	// MaxConcurrent is the maximum number of converter processes (default: 4)
	MaxConcurrent int `env:"CONVERT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a converter slot (default: 30s)
	MaxWaitTime time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"30s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedIPs lists client IPs or CIDRs allowed to call the API (default: loopback only)
	AllowedIPs []string `env:"ALLOWED_IPS" default:"127.0.0.1/32,::1/128"`

	// RequireAPIKey enables X-API-Key authentication (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// Dir receives daily log files; empty logs to stdout only
	Dir string `env:"LOG_DIR"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location returns the configured time zone.
func (c *RenderConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}
