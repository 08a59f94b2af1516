package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratson/go-watchman/internal/cli/output"
	"github.com/ratson/go-watchman/internal/cli/prompt"
	"github.com/ratson/go-watchman/internal/client"
)

var (
	requiredCapabilities []string
	optionalCapabilities []string
)

// destructiveCapabilities names capabilities that, if missing, are
// safe to fail loudly on but whose presence is worth a confirmation
// before wmctl proceeds to rely on them -- they let a caller ask the
// service to discard state.
var destructiveCapabilities = map[string]bool{
	"cmd-watch-del-all": true,
}

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Check the watchman service for required and optional capabilities",
	Long: `capabilities runs a capability check against the service and
reports which of the named capabilities it supports. It exits non-zero
if any --required capability is missing.`,
	RunE: runCapabilities,
}

func init() {
	capabilitiesCmd.Flags().StringSliceVar(&requiredCapabilities, "required", nil, "comma-separated capabilities that must be supported")
	capabilitiesCmd.Flags().StringSliceVar(&optionalCapabilities, "optional", nil, "comma-separated capabilities to report on without requiring")
}

func runCapabilities(cmd *cobra.Command, args []string) error {
	for _, name := range requiredCapabilities {
		if destructiveCapabilities[name] {
			ok, err := prompt.Confirm(fmt.Sprintf("require destructive capability %q", name), false)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("capabilities: aborted: %s requires confirmation", name)
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}

	reg, stopMetrics := startMetricsServer(resolveMetricsAddr(cfg))
	defer func() { _ = stopMetrics(cmd.Context()) }()

	c := newClient(cfg, reg)
	defer c.End()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	resp, err := c.CapabilityCheck(ctx, client.CapabilityCheckRequest{
		Required: requiredCapabilities,
		Optional: optionalCapabilities,
	})
	if err != nil {
		return fmt.Errorf("capabilities: %w", err)
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	printer := output.NewPrinter(cmd.OutOrStdout(), format, !noColor)

	names := append(append([]string{}, requiredCapabilities...), optionalCapabilities...)
	printer.Printf("server version: %s\n\n", resp.Version)
	return printer.Print(capabilityTable(names, resp))
}
