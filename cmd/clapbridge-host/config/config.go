// Package config loads ClapBridgeConfig, the demo host's own
// configuration surface. It is deliberately separate from the core
// library: nothing under coreplugin/registry/reactor/worker/rpcserver
// reads a config file, they are all wired together with plain function
// arguments by whatever embeds them (cmd/clapbridge-host included).
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/deeedob/clap-rci/errors"
)

// ClapBridgeConfig is the demo host's mapstructure-tagged config,
// shaped the way am.Config groups QNTX's subsystem configs.
type ClapBridgeConfig struct {
	RPC      RPCConfig      `mapstructure:"rpc"`
	Registry RegistryConfig `mapstructure:"registry"`
}

// RPCConfig configures the process-wide rpcserver.Server listener.
type RPCConfig struct {
	BindAddress string `mapstructure:"bind_address"`
}

// RegistryConfig configures the demo plugin kind the host registers.
// RingCapacity is only shown in the startup banner; it does not size any
// ring. Every instance's rings use coreplugin's fixed capacity (256).
type RegistryConfig struct {
	PluginPath     string `mapstructure:"plugin_path"`
	RingCapacity   int    `mapstructure:"ring_capacity"`
	TickIntervalMS int    `mapstructure:"tick_interval_ms"`
}

var global *ClapBridgeConfig

// Load reads ClapBridgeConfig from (in ascending precedence) baked-in
// defaults, ./clapbridge.toml if present, and CLAPBRIDGE_-prefixed
// environment variables, the same layering am.Load applies to
// am.Config.
func Load() (*ClapBridgeConfig, error) {
	if global != nil {
		return global, nil
	}

	v := viper.New()
	v.SetEnvPrefix("CLAPBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	v.SetConfigName("clapbridge")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, errors.Wrap(err, "failed to read clapbridge.toml")
		}
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	global = cfg
	return global, nil
}

// LoadWithViper unmarshals a ClapBridgeConfig from a caller-provided
// Viper instance, letting tests exercise defaulting/unmarshaling
// without touching process environment or the filesystem.
func LoadWithViper(v *viper.Viper) (*ClapBridgeConfig, error) {
	var cfg ClapBridgeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal clapbridge config")
	}
	return &cfg, nil
}

// SetDefaults installs baked-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rpc.bind_address", "127.0.0.1:0")
	v.SetDefault("registry.plugin_path", "")
	v.SetDefault("registry.ring_capacity", 256)
	v.SetDefault("registry.tick_interval_ms", 10)
}

// Reset clears the cached config, for tests that load it more than
// once per process.
func Reset() {
	global = nil
}
