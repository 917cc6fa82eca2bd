package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{
		"locations", "boroughs", "top", "heatmap", "cluster", "choropleth",
		"all", "export", "fetch", "serve", "tiers",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "listing-atlas", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAllCommand_Flags(t *testing.T) {
	flag := allCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "all command should have --concurrency flag")
	assert.Equal(t, "3", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestArtifacts_UniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, ar := range artifacts {
		assert.False(t, seen[ar.name], "duplicate artifact %q", ar.name)
		seen[ar.name] = true
		assert.NotNil(t, ar.render, ar.name)
		assert.NotEmpty(t, ar.short, ar.name)
	}
	assert.Len(t, seen, 6)
}
