package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryCommandRejectsMalformedJSON(t *testing.T) {
	err := runQuery(queryCmd, []string{"{not valid json"})
	assert.Error(t, err)
}

func TestQueryCommandHasVerboseFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("verbose")
	assert.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}
