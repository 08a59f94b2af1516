package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ratson/go-watchman/pkg/config"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range GetRootCmd().Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"version", "sockname", "query", "capabilities", "completion"} {
		assert.True(t, names[want], "expected subcommand %q to be registered", want)
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	flags := GetRootCmd().PersistentFlags()

	for _, name := range []string{"config", "output", "no-color", "metrics-addr", "profile", "profile-endpoint"} {
		assert.NotNil(t, flags.Lookup(name), "expected persistent flag %q", name)
	}
}

func TestQueryCommandRequiresExactlyOneArg(t *testing.T) {
	err := queryCmd.Args(queryCmd, []string{})
	assert.Error(t, err)

	err = queryCmd.Args(queryCmd, []string{"one", "two"})
	assert.Error(t, err)

	err = queryCmd.Args(queryCmd, []string{`["version"]`})
	assert.NoError(t, err)
}

func TestResolveMetricsAddrPrefersFlagOverConfig(t *testing.T) {
	prev := metricsAddr
	t.Cleanup(func() { metricsAddr = prev })

	cfg := &config.Config{}
	cfg.Metrics.ListenAddr = ":9090"

	metricsAddr = ""
	assert.Equal(t, ":9090", resolveMetricsAddr(cfg))

	metricsAddr = ":9999"
	assert.Equal(t, ":9999", resolveMetricsAddr(cfg))
}
