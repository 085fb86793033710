package config

import "time"

// Default configuration values.
const (
	DefaultAddress             = "[::]:50051"
	DefaultWorkers             = 10
	DefaultGracefulStopTimeout = 30 * time.Second
	DefaultMaxMsgSize          = 4 * 1024 * 1024
	DefaultMetricsAddress      = ":9090"
	DefaultMetricsPath         = "/metrics"
	DefaultServiceName         = "recommendations"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "json"
	DefaultTLSMinVersion       = "TLS12"
)

// Config is the root configuration of the recommendations service.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Catalog CatalogConfig `yaml:"catalog,omitempty" json:"catalog,omitempty"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// ServerConfig configures the gRPC listener.
type ServerConfig struct {
	Address             string           `yaml:"address" json:"address"`
	Workers             int              `yaml:"workers" json:"workers"`
	GracefulStopTimeout Duration         `yaml:"gracefulStopTimeout" json:"gracefulStopTimeout"`
	MaxRecvMsgSize      int              `yaml:"maxRecvMsgSize,omitempty" json:"maxRecvMsgSize,omitempty"`
	MaxSendMsgSize      int              `yaml:"maxSendMsgSize,omitempty" json:"maxSendMsgSize,omitempty"`
	Keepalive           *KeepaliveConfig `yaml:"keepalive,omitempty" json:"keepalive,omitempty"`
	Reflection          bool             `yaml:"reflection" json:"reflection"`
	HealthCheck         bool             `yaml:"healthCheck" json:"healthCheck"`
	Insecure            bool             `yaml:"insecure" json:"insecure"`
	TLS                 *TLSConfig       `yaml:"tls,omitempty" json:"tls,omitempty"`
	RateLimit           *RateLimitConfig `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
}

// KeepaliveConfig configures gRPC server keepalive.
type KeepaliveConfig struct {
	Time                  Duration `yaml:"time,omitempty" json:"time,omitempty"`
	Timeout               Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	MaxConnectionIdle     Duration `yaml:"maxConnectionIdle,omitempty" json:"maxConnectionIdle,omitempty"`
	MaxConnectionAge      Duration `yaml:"maxConnectionAge,omitempty" json:"maxConnectionAge,omitempty"`
	MaxConnectionAgeGrace Duration `yaml:"maxConnectionAgeGrace,omitempty" json:"maxConnectionAgeGrace,omitempty"`
	PermitWithoutStream   bool     `yaml:"permitWithoutStream,omitempty" json:"permitWithoutStream,omitempty"`
}

// TLSConfig points at the PEM encoded server credentials.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	CertFile   string `yaml:"certFile" json:"certFile"`
	KeyFile    string `yaml:"keyFile" json:"keyFile"`
	MinVersion string `yaml:"minVersion,omitempty" json:"minVersion,omitempty"`
}

// GetEffectiveMinVersion returns the configured minimum TLS version or TLS12.
func (c *TLSConfig) GetEffectiveMinVersion() string {
	if c == nil || c.MinVersion == "" {
		return DefaultTLSMinVersion
	}
	return c.MinVersion
}

// RateLimitConfig configures the token bucket applied to all calls.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// CatalogConfig selects the catalog source. An empty File uses the built-in catalog.
type CatalogConfig struct {
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig configures the HTTP listener serving metrics and health probes.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Endpoint     string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
}

// DefaultConfig returns the configuration used when no file is given:
// an insecure listener on [::]:50051 with ten workers and the built-in catalog.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:             DefaultAddress,
			Workers:             DefaultWorkers,
			GracefulStopTimeout: Duration(DefaultGracefulStopTimeout),
			MaxRecvMsgSize:      DefaultMaxMsgSize,
			MaxSendMsgSize:      DefaultMaxMsgSize,
			Reflection:          true,
			HealthCheck:         true,
			Insecure:            true,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: DefaultMetricsAddress,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			SamplingRate: 1.0,
			ServiceName:  DefaultServiceName,
		},
	}
}

// TLSEnabled reports whether the server should serve TLS.
func (c *ServerConfig) TLSEnabled() bool {
	return c.TLS != nil && c.TLS.Enabled
}
