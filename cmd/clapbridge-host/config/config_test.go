package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithViper_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:0", cfg.RPC.BindAddress)
	assert.Equal(t, 256, cfg.Registry.RingCapacity)
	assert.Equal(t, 10, cfg.Registry.TickIntervalMS)
	assert.Equal(t, "", cfg.Registry.PluginPath)
}

func TestLoadWithViper_OverridesDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("rpc.bind_address", "0.0.0.0:9000")
	v.Set("registry.plugin_path", "/usr/lib/clap")

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.RPC.BindAddress)
	assert.Equal(t, "/usr/lib/clap", cfg.Registry.PluginPath)
}
