// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// LogConfig selects the logrus level and output format.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `mapstructure:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host" json:"host" yaml:"host"`
	Port int    `mapstructure:"port" json:"port" yaml:"port"`

	// MaxUploadSize is an echo body-limit size such as "50M".
	MaxUploadSize string `mapstructure:"max_upload_size" json:"max_upload_size" yaml:"max_upload_size"`

	// RateLimit is the sustained number of requests per second allowed per
	// client IP. Zero disables rate limiting.
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit" yaml:"rate_limit"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ConversionConfig holds dispatcher settings.
type ConversionConfig struct {
	// TempDir is the root for per-request working directories
	// (default: the OS temp dir).
	TempDir string `mapstructure:"temp_dir" json:"temp_dir" yaml:"temp_dir"`

	// Timeout bounds each conversion attempt. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`

	// DPI is the rasterization resolution for PDF pages (default 150).
	DPI int `mapstructure:"dpi" json:"dpi" yaml:"dpi"`
}

// OfficeConfig controls how the LibreOffice suite is located.
type OfficeConfig struct {
	// Binaries are tried in order on PATH (default libreoffice, soffice).
	Binaries []string `mapstructure:"binaries" json:"binaries" yaml:"binaries"`

	// ContainerImage, when set, runs LibreOffice in a docker or podman
	// container if no local binary is found. The image entrypoint must be
	// soffice.
	ContainerImage string `mapstructure:"container_image" json:"container_image,omitempty" yaml:"container_image,omitempty"`

	// ProfileDir is the shared LibreOffice user profile for local runs.
	ProfileDir string `mapstructure:"profile_dir" json:"profile_dir" yaml:"profile_dir"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" json:"path" yaml:"path"`
}

// HistoryConfig locates the SQLite conversion history. An empty Path
// disables history.
type HistoryConfig struct {
	Path string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty"`
}

// StorageConfig configures archival of converted documents to an
// S3-compatible bucket.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	UseSSL    bool   `mapstructure:"use_ssl" json:"use_ssl" yaml:"use_ssl"`
	AccessKey string `mapstructure:"access_key" json:"-" yaml:"-"`
	SecretKey string `mapstructure:"secret_key" json:"-" yaml:"-"`
	Region    string `mapstructure:"region" json:"region,omitempty" yaml:"region,omitempty"`
	Bucket    string `mapstructure:"bucket" json:"bucket,omitempty" yaml:"bucket,omitempty"`

	CreateBucketIfNotExist bool `mapstructure:"create_bucket" json:"create_bucket" yaml:"create_bucket"`
}

// EventsConfig configures publication of conversion events to Kafka. No
// brokers disables publishing.
type EventsConfig struct {
	Brokers []string `mapstructure:"brokers" json:"brokers,omitempty" yaml:"brokers,omitempty"`
	Topic   string   `mapstructure:"topic" json:"topic" yaml:"topic"`
}

// Config groups the settings of every component.
type Config struct {
	Log        LogConfig        `mapstructure:"log" json:"log" yaml:"log"`
	Server     ServerConfig     `mapstructure:"server" json:"server" yaml:"server"`
	Conversion ConversionConfig `mapstructure:"conversion" json:"conversion" yaml:"conversion"`
	Office     OfficeConfig     `mapstructure:"office" json:"office" yaml:"office"`
	Metrics    MetricsConfig    `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	History    HistoryConfig    `mapstructure:"history" json:"history" yaml:"history"`
	Storage    StorageConfig    `mapstructure:"storage" json:"storage" yaml:"storage"`
	Events     EventsConfig     `mapstructure:"events" json:"events" yaml:"events"`
}
