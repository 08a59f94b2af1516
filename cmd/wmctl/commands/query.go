package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratson/go-watchman/internal/bser"
	"github.com/ratson/go-watchman/internal/bytesize"
	"github.com/ratson/go-watchman/internal/cli/output"
	"github.com/ratson/go-watchman/internal/cli/timeutil"
)

var queryVerbose bool

var queryCmd = &cobra.Command{
	Use:   "query <json>",
	Short: "Send a raw command to the watchman service and print its response",
	Long: `query parses its argument as a JSON array or object, converts
it to the service's wire representation, sends it as a single command,
and prints the decoded response.

Example:
  wmctl query '["query", "/path/to/repo", {"expression": ["exists"]}]'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVarP(&queryVerbose, "verbose", "v", false, "print request size and round-trip time before the response")
}

func runQuery(cmd *cobra.Command, args []string) error {
	request, err := bser.FromJSON([]byte(args[0]))
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if queryVerbose {
		encoded, err := bser.Encode(request)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "request size: %s\n", bytesize.ByteSize(len(encoded)))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}

	telemetryShutdown, err := initTelemetry(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = telemetryShutdown(cmd.Context()) }()

	reg, stopMetrics := startMetricsServer(resolveMetricsAddr(cfg))
	defer func() { _ = stopMetrics(cmd.Context()) }()

	c := newClient(cfg, reg)
	defer c.End()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	type result struct {
		resp bser.Value
		err  error
	}
	resultCh := make(chan result, 1)
	started := time.Now()
	if err := c.Command(ctx, request, func(err error, resp bser.Value) {
		resultCh <- result{resp, err}
	}); err != nil {
		return fmt.Errorf("query: %w", err)
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return fmt.Errorf("query: %w", res.err)
		}
		if queryVerbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "round trip: %s\n", timeutil.FormatUptime(time.Since(started).String()))
		}
		format, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		printer := output.NewPrinter(cmd.OutOrStdout(), format, !noColor)
		return printer.Print(bser.ToNative(res.resp))
	case <-ctx.Done():
		return ctx.Err()
	}
}
