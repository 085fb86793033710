// Package main is the entry point for the recommendations service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/recommendations/internal/config"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool

	query      bool
	queryAddr  string
	category   string
	maxResults int
	userID     int
	caFile     string
	serverName string
}

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if flags.showVersion {
		printVersion(os.Stdout)
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flags.query {
		if err := runQuery(ctx, flags, os.Stdout, logger); err != nil {
			logger.Fatal("query failed", observability.Error(err))
		}
		return
	}

	cfg := loadAndValidateConfig(flags, logger)
	logger = applyLoggingConfig(flags, cfg, logger)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", observability.Error(err))
	}

	if err := app.run(ctx); err != nil {
		logger.Fatal("recommendations service failed", observability.Error(err))
	}
}

// parseFlags parses command line flags.
func parseFlags(fs *flag.FlagSet, args []string) (cliFlags, error) {
	var f cliFlags

	fs.StringVar(&f.configPath, "config", getEnvOrDefault("RECOMMENDATIONS_CONFIG_PATH", ""),
		"Path to configuration file (built-in defaults when empty)")
	fs.StringVar(&f.logLevel, "log-level", getEnvOrDefault("RECOMMENDATIONS_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", getEnvOrDefault("RECOMMENDATIONS_LOG_FORMAT", ""),
		"Log format (json, console)")
	fs.BoolVar(&f.showVersion, "version", false, "Show version information")

	fs.BoolVar(&f.query, "query", false, "Call a running server instead of serving")
	fs.StringVar(&f.queryAddr, "addr", getEnvOrDefault("RECOMMENDATIONS_ADDR", "localhost:50051"),
		"Server address for -query")
	fs.StringVar(&f.category, "category", "MYSTERY", "Category for -query (MYSTERY, SCIENCE_FICTION, SELF_HELP)")
	fs.IntVar(&f.maxResults, "max", 3, "Maximum results for -query")
	fs.IntVar(&f.userID, "user", 1, "User ID for -query")
	fs.StringVar(&f.caFile, "ca-file", getEnvOrDefault("RECOMMENDATIONS_CA_FILE", ""),
		"CA certificate for -query over TLS (plaintext when empty)")
	fs.StringVar(&f.serverName, "server-name", "", "TLS server name override for -query")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}

	return f, nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "recommendations version %s\n", version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger. Flag and environment values win over
// the configuration file, which is read later.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(logConfig(flags, nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// applyLoggingConfig rebuilds the logger when the configuration file changes
// the logging settings.
func applyLoggingConfig(flags cliFlags, cfg *config.Config, current observability.Logger) observability.Logger {
	lc := logConfig(flags, cfg)
	if lc == logConfig(flags, nil) {
		return current
	}

	logger, err := observability.NewLogger(lc)
	if err != nil {
		current.Fatal("invalid logging configuration", observability.Error(err))
	}

	_ = current.Sync()
	observability.SetGlobalLogger(logger)
	return logger
}

// logConfig merges logging settings from flags over cfg.
func logConfig(flags cliFlags, cfg *config.Config) observability.LogConfig {
	lc := observability.DefaultLogConfig()

	if cfg != nil {
		if cfg.Logging.Level != "" {
			lc.Level = cfg.Logging.Level
		}
		if cfg.Logging.Format != "" {
			lc.Format = cfg.Logging.Format
		}
	}

	if flags.logLevel != "" {
		lc.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		lc.Format = flags.logFormat
	}

	return lc
}

// loadAndValidateConfig loads the configuration file, or the built-in
// defaults when no path is given.
func loadAndValidateConfig(flags cliFlags, logger observability.Logger) *config.Config {
	logger.Info("starting recommendations",
		observability.String("version", version),
		observability.String("config", flags.configPath),
	)

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.String("address", cfg.Server.Address),
		observability.Int("workers", cfg.Server.Workers),
		observability.Bool("tls", cfg.Server.TLSEnabled()),
		observability.Bool("metrics", cfg.Metrics.Enabled),
		observability.Bool("tracing", cfg.Tracing.Enabled),
	)

	return cfg
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.DefaultConfig()
		if err := config.ValidateConfig(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.LoadConfig(path)
}
