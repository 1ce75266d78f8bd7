package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the configuration of the running command.
	globalConfig *Config

	// configMutex protects access to globalConfig.
	configMutex sync.RWMutex
)

// Load loads configuration from path with KAE_* environment overrides and
// makes it the global configuration. An empty path starts from defaults.
// The global configuration is left untouched when loading fails.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}
	SetConfig(cfg)
	return cfg, nil
}

// GetConfig returns the global configuration, or nil if nothing has been
// loaded yet.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// SetConfig replaces the global configuration.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig reloads the configuration from path. The global configuration
// is replaced only if loading and validation succeed.
func ReloadConfig(path string) error {
	if _, err := Load(path); err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	return nil
}
