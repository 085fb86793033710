package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates service configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// ValidateConfig validates a service configuration.
func ValidateConfig(config *Config) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateServer(&config.Server)
	v.validateLogging(&config.Logging)
	v.validateMetrics(&config.Metrics)
	v.validateTracing(&config.Tracing)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Address == "" {
		v.addError("server.address", "address is required")
	} else if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		v.addError("server.address", fmt.Sprintf("invalid address %q: %v", cfg.Address, err))
	}

	if cfg.Workers < 1 {
		v.addError("server.workers", "workers must be at least 1")
	}
	if cfg.GracefulStopTimeout < 0 {
		v.addError("server.gracefulStopTimeout", "gracefulStopTimeout must not be negative")
	}
	if cfg.MaxRecvMsgSize < 0 {
		v.addError("server.maxRecvMsgSize", "maxRecvMsgSize must not be negative")
	}
	if cfg.MaxSendMsgSize < 0 {
		v.addError("server.maxSendMsgSize", "maxSendMsgSize must not be negative")
	}

	if !cfg.Insecure && !cfg.TLSEnabled() {
		v.addError("server.tls", "either tls.enabled or insecure must be set")
	}
	if cfg.TLSEnabled() {
		v.validateTLS(cfg.TLS, "server.tls")
	}

	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		v.validateRateLimit(cfg.RateLimit, "server.rateLimit")
	}
}

func (v *Validator) validateTLS(cfg *TLSConfig, path string) {
	if cfg.CertFile == "" {
		v.addError(path+".certFile", "certFile is required when TLS is enabled")
	}
	if cfg.KeyFile == "" {
		v.addError(path+".keyFile", "keyFile is required when TLS is enabled")
	}
	switch cfg.GetEffectiveMinVersion() {
	case "TLS12", "TLS13":
	default:
		v.addError(path+".minVersion", fmt.Sprintf("unsupported minVersion %q, must be TLS12 or TLS13", cfg.MinVersion))
	}
}

func (v *Validator) validateRateLimit(cfg *RateLimitConfig, path string) {
	if cfg.RequestsPerSecond <= 0 {
		v.addError(path+".requestsPerSecond", "requestsPerSecond must be positive")
	}
	if cfg.Burst < 1 {
		v.addError(path+".burst", "burst must be at least 1")
	}
}

func (v *Validator) validateLogging(cfg *LoggingConfig) {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level %q", cfg.Level))
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format %q", cfg.Format))
	}
}

func (v *Validator) validateMetrics(cfg *MetricsConfig) {
	if !cfg.Enabled {
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		v.addError("metrics.address", fmt.Sprintf("invalid address %q: %v", cfg.Address, err))
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		v.addError("metrics.path", "path must start with '/'")
	}
}

func (v *Validator) validateTracing(cfg *TracingConfig) {
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		v.addError("tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
