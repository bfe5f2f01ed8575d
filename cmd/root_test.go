package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davestroud/publix/internal/ingest"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"analyze", "opportunities", "roi", "site", "timeline", "predict", "seed", "fetch", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "publix", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAnalyzeCommand_RequiredFlags(t *testing.T) {
	require.NotNil(t, analyzeCmd.Flags().Lookup("city"))
	require.NotNil(t, analyzeCmd.Flags().Lookup("state"))
}

func TestOpportunitiesCommand_Flags(t *testing.T) {
	flag := opportunitiesCmd.Flags().Lookup("workers")
	require.NotNil(t, flag)
	assert.Equal(t, "8", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestPredictCommand_Flags(t *testing.T) {
	flag := predictCmd.Flags().Lookup("top")
	require.NotNil(t, flag)
	assert.Equal(t, "5", flag.DefValue)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"FL", "GA"}, splitAndTrim("FL, GA"))
	assert.Equal(t, []string{"FL"}, splitAndTrim("FL,,"))
	assert.Empty(t, splitAndTrim(" , "))
}

func TestWinningSource(t *testing.T) {
	attempts := []ingest.Attempt{
		{Source: "file:a.yaml", Count: 0},
		{Source: "file:b.yaml", Count: 3},
	}
	assert.Equal(t, "file:b.yaml", winningSource(attempts))
	assert.Equal(t, "none", winningSource(nil))
}
