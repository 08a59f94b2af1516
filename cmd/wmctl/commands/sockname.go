package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ratson/go-watchman/internal/client"
)

var socknameCmd = &cobra.Command{
	Use:   "sockname",
	Short: "Print the watchman service's socket path without connecting",
	Long: `sockname resolves the Unix-domain socket the service is
listening on -- $WATCHMAN_SOCK if set, else by spawning the service's
CLI and parsing its own get-sockname output -- and prints it without
dialing the socket.`,
	RunE: runSockname,
}

func runSockname(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, err := client.DiscoverSocketPath(cmd.Context(), cfg.Watchman.BinaryPath)
	if err != nil {
		return fmt.Errorf("sockname: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
