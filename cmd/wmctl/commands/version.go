package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratson/go-watchman/internal/client"
	"github.com/ratson/go-watchman/internal/cli/output"
)

// knownCapabilities is the set of capability names wmctl reports on by
// default when a caller does not name any itself, mirroring the
// client's own minimum-version table.
var knownCapabilities = []string{
	"cmd-watch-del-all",
	"cmd-watch-project",
	"relative_root",
	"term-dirname",
	"term-idirname",
	"wildmatch",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the watchman service's version and capabilities",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
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

	resp, err := c.CapabilityCheck(ctx, client.CapabilityCheckRequest{Optional: knownCapabilities})
	if err != nil {
		return fmt.Errorf("version: %w", err)
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), format, !noColor)

	printer.Printf("server version: %s\n\n", resp.Version)
	return printer.Print(capabilityTable(knownCapabilities, resp))
}
