package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ratson/go-watchman/internal/client"
	"github.com/ratson/go-watchman/internal/cli/output"
	"github.com/ratson/go-watchman/internal/logger"
	"github.com/ratson/go-watchman/internal/metrics"
	"github.com/ratson/go-watchman/internal/telemetry"
	"github.com/ratson/go-watchman/pkg/config"
)

// commandTimeout bounds how long a single wmctl invocation waits for
// the service to answer before giving up.
const commandTimeout = 30 * time.Second

// resolveMetricsAddr returns the --metrics-addr flag value if set,
// else falls back to the configured metrics.listen_addr.
func resolveMetricsAddr(cfg *config.Config) string {
	if metricsAddr != "" {
		return metricsAddr
	}
	return cfg.Metrics.ListenAddr
}

// loadConfig loads configuration from the --config flag, falling back
// to the default search path and environment variables. A resolved
// watchman.sock setting is propagated to $WATCHMAN_SOCK so the client
// package's own discovery (which reads the environment directly)
// picks it up without threading the override through Options.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cfg.Watchman.Sock != "" {
		_ = os.Setenv("WATCHMAN_SOCK", cfg.Watchman.Sock)
	}
	return cfg, nil
}

// initLogger initializes the process-wide structured logger from cfg.
func initLogger(cfg *config.Config) error {
	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initTelemetry wires OpenTelemetry tracing (and, if requested,
// Pyroscope profiling) from cfg and the root command's flags. It
// returns a shutdown function that flushes and closes both.
func initTelemetry(ctx context.Context, cfg *config.Config) (shutdown func(context.Context) error, err error) {
	traceShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "go-watchman",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       true,
		SampleRate:     1.0,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	profileShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        enableProfiling,
		ServiceName:    "go-watchman",
		ServiceVersion: Version,
		Endpoint:       profileEndpoint,
		ProfileTypes:   []string{"cpu", "alloc_objects", "inuse_objects"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	return func(ctx context.Context) error {
		profileErr := profileShutdown()
		traceErr := traceShutdown(ctx)
		if traceErr != nil {
			return traceErr
		}
		return profileErr
	}, nil
}

// startMetricsServer builds a metrics registry for the client and, if
// addr is non-empty, serves it over HTTP via promhttp in the
// background. It returns the registry (never nil) and a shutdown
// function.
func startMetricsServer(addr string) (*metrics.Registry, func(context.Context) error) {
	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	if addr == "" {
		return reg, func(context.Context) error { return nil }
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return reg, srv.Shutdown
}

// newClient constructs a client.Client from cfg, wired with this
// process's metrics registry. The caller is responsible for calling
// End on the returned client once done.
func newClient(cfg *config.Config, reg *metrics.Registry) *client.Client {
	return client.New(client.Options{
		BinaryPath: cfg.Watchman.BinaryPath,
		Metrics:    reg,
		Handlers: client.EventHandlers{
			OnError: func(err error) { logger.Error("client error", "error", err) },
		},
	})
}

// capabilityTable renders a capability-check response as a two-column
// table, reporting on exactly the names the caller asked about.
func capabilityTable(names []string, resp *client.CapabilityCheckResponse) *output.TableData {
	table := output.NewTableData("Capability", "Supported")
	for _, name := range names {
		supported := "no"
		if resp.Capabilities[name] {
			supported = "yes"
		}
		table.AddRow(name, supported)
	}
	return table
}
