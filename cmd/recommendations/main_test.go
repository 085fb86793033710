package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/recommendations/internal/config"
	"github.com/vyrodovalexey/recommendations/internal/grpc/server"
	"github.com/vyrodovalexey/recommendations/internal/observability"
)

func TestParseFlags_Defaults(t *testing.T) {
	t.Setenv("RECOMMENDATIONS_CONFIG_PATH", "")
	t.Setenv("RECOMMENDATIONS_LOG_LEVEL", "")
	t.Setenv("RECOMMENDATIONS_LOG_FORMAT", "")
	t.Setenv("RECOMMENDATIONS_ADDR", "")

	flags, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)

	assert.Empty(t, flags.configPath)
	assert.Empty(t, flags.logLevel)
	assert.False(t, flags.query)
	assert.Equal(t, "localhost:50051", flags.queryAddr)
	assert.Equal(t, "MYSTERY", flags.category)
	assert.Equal(t, 3, flags.maxResults)
}

func TestParseFlags_EnvAndArgs(t *testing.T) {
	t.Setenv("RECOMMENDATIONS_CONFIG_PATH", "/etc/recommendations.yaml")
	t.Setenv("RECOMMENDATIONS_LOG_LEVEL", "debug")

	flags, err := parseFlags(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-log-level", "warn", "-query", "-category", "self_help", "-max", "2",
	})
	require.NoError(t, err)

	assert.Equal(t, "/etc/recommendations.yaml", flags.configPath)
	assert.Equal(t, "warn", flags.logLevel)
	assert.True(t, flags.query)
	assert.Equal(t, "self_help", flags.category)
	assert.Equal(t, 2, flags.maxResults)
}

func TestParseFlags_Invalid(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	_, err := parseFlags(fs, []string{"-max", "many"})
	assert.Error(t, err)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("RECOMMENDATIONS_TEST_VALUE", "set")

	assert.Equal(t, "set", getEnvOrDefault("RECOMMENDATIONS_TEST_VALUE", "default"))
	assert.Equal(t, "default", getEnvOrDefault("RECOMMENDATIONS_TEST_UNSET", "default"))
}

func TestLogConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	lc := logConfig(cliFlags{}, nil)
	assert.Equal(t, "info", lc.Level)
	assert.Equal(t, "json", lc.Format)

	lc = logConfig(cliFlags{}, cfg)
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "console", lc.Format)

	lc = logConfig(cliFlags{logLevel: "error"}, cfg)
	assert.Equal(t, "error", lc.Level)
	assert.Equal(t, "console", lc.Format)
}

func TestPrintVersion(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printVersion(&buf)
	assert.Contains(t, buf.String(), "recommendations version dev")
	assert.Contains(t, buf.String(), "Git commit: unknown")
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAddress, cfg.Server.Address)
	assert.Equal(t, config.DefaultWorkers, cfg.Server.Workers)
	assert.True(t, cfg.Server.Insecure)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: 127.0.0.1:6000\n  workers: 4\n"), 0o600))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6000", cfg.Server.Address)
	assert.Equal(t, 4, cfg.Server.Workers)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewApplication_CatalogFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories:\n  MYSTERY:\n    - id: 1\n      title: Rebecca\n"), 0o600))

	cfg := testConfig()
	cfg.Catalog.File = path

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, app.catalog.Len())

	cfg.Catalog.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = newApplication(cfg, observability.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
}

func TestBuildInterceptors(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	// request id, metrics, logging, status, recovery, concurrency
	assert.Len(t, app.buildInterceptors(), 6)

	cfg = testConfig()
	cfg.Server.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerSecond: 100, Burst: 10}
	app, err = newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	assert.Len(t, app.buildInterceptors(), 7)
}

func TestRunQuery_InvalidInput(t *testing.T) {
	t.Parallel()

	err := runQuery(context.Background(), cliFlags{category: "POETRY", queryAddr: "localhost:1"}, io.Discard, observability.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POETRY")

	err = runQuery(context.Background(), cliFlags{category: "MYSTERY", maxResults: 1 << 40}, io.Discard, observability.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.GracefulStopTimeout = config.Duration(5 * time.Second)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = "127.0.0.1:0"
	return cfg
}

func startApplication(t *testing.T, cfg *config.Config, opts ...server.Option) (*application, context.CancelFunc, <-chan error) {
	t.Helper()

	app, err := newApplication(cfg, observability.NopLogger(), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.run(ctx) }()

	select {
	case <-app.ready:
	case err := <-errCh:
		cancel()
		t.Fatalf("application failed to start: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("application did not start")
	}

	return app, cancel, errCh
}

func TestApplication_RunAndShutdown(t *testing.T) {
	t.Parallel()

	app, cancel, errCh := startApplication(t, testConfig())
	defer cancel()

	require.True(t, app.server.IsServing())
	metricsURL := "http://" + app.metricsAddr().String()

	var out bytes.Buffer
	err := runQuery(context.Background(), cliFlags{
		queryAddr:  app.server.Addr().String(),
		category:   "SCIENCE_FICTION",
		maxResults: 2,
		userID:     9,
	}, &out, observability.NopLogger())
	require.NoError(t, err)

	var resp struct {
		Recommendations []struct {
			ID    int32  `json:"id"`
			Title string `json:"title"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 2)
	for _, rec := range resp.Recommendations {
		assert.Contains(t, []int32{4, 5, 6}, rec.ID)
	}

	err = runQuery(context.Background(), cliFlags{
		queryAddr:  app.server.Addr().String(),
		category:   "SELF_HELP",
		maxResults: 1,
	}, io.Discard, observability.NopLogger())
	require.NoError(t, err)

	body := httpGet(t, metricsURL+"/metrics", http.StatusOK)
	assert.Contains(t, body, `recommendations_server_requests_total{code="OK",method="Recommend",service="recommendations.Recommendations"} 2`)
	assert.Contains(t, body, `recommendations_catalog_items`)

	httpGet(t, metricsURL+"/ready", http.StatusOK)
	httpGet(t, metricsURL+"/live", http.StatusOK)
	httpGet(t, metricsURL+"/health", http.StatusOK)

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}

	assert.Equal(t, server.StateStopped, app.server.State())
	assert.True(t, app.healthChecker.IsDraining())
}

func TestApplication_ReadinessFailsWhenServerStopped(t *testing.T) {
	t.Parallel()

	app, err := newApplication(testConfig(), observability.NopLogger())
	require.NoError(t, err)

	check := app.grpcCheck()
	assert.Equal(t, "unstarted", check.Message)
	assert.NotEqual(t, "healthy", string(check.Status))
}

func TestApplication_StartFailure(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Server.Insecure = false

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)

	err = app.run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, server.ErrNoCredentials)
}

func httpGet(t *testing.T, url string, wantStatus int) string {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, wantStatus, resp.StatusCode, string(body))

	return string(body)
}
