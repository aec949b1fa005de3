// Package config loads layered application configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the per-project configuration file name.
	ConfigFileName = ".wikimap.yaml"
	// GlobalConfigDirectoryName is the directory below the user home that
	// holds global configuration and generated data.
	GlobalConfigDirectoryName = ".wikimap"
	// globalConfigFileName is the configuration file inside the global directory.
	globalConfigFileName = "config.yaml"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	DataRoot string                  `mapstructure:"data_root"`
	Engine   EngineConfiguration     `mapstructure:"engine"`
	Codemap  CodemapConfiguration    `mapstructure:"codemap"`
	Server   ToolServerConfiguration `mapstructure:"mcp"`
}

// EngineConfiguration configures the external retrieval/answer engine.
type EngineConfiguration struct {
	BaseURL        string `mapstructure:"base_url"`
	Provider       string `mapstructure:"provider"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CodemapConfiguration defines defaults for the codemap command.
type CodemapConfiguration struct {
	Format    string `mapstructure:"format"`
	Tokens    *bool  `mapstructure:"tokens"`
	Model     string `mapstructure:"model"`
	Clipboard *bool  `mapstructure:"clipboard"`
}

// ToolServerConfiguration defines defaults for the tool server.
type ToolServerConfiguration struct {
	Address string `mapstructure:"address"`
}

// DefaultDataRoot returns the data root used when configuration specifies none.
func DefaultDataRoot() string {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil || homeDirectory == "" {
		return GlobalConfigDirectoryName
	}
	return filepath.Join(homeDirectory, GlobalConfigDirectoryName)
}

// LoadApplicationConfiguration loads configuration from global and local files.
// The local file overrides the global one value by value.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, globalConfigFileName)
		globalConfig, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	if localPath != "" {
		localConfig, loadError := loadConfigurationFromPath(localPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(localConfig)
	}

	if merged.DataRoot == "" {
		merged.DataRoot = DefaultDataRoot()
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	return filepath.Join(workingDirectory, ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	if override.DataRoot != "" {
		result.DataRoot = override.DataRoot
	}
	result.Engine = result.Engine.merge(override.Engine)
	result.Codemap = result.Codemap.merge(override.Codemap)
	result.Server = result.Server.merge(override.Server)
	return result
}

func (configuration EngineConfiguration) merge(override EngineConfiguration) EngineConfiguration {
	result := configuration
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Provider != "" {
		result.Provider = override.Provider
	}
	if override.TimeoutSeconds != 0 {
		result.TimeoutSeconds = override.TimeoutSeconds
	}
	return result
}

func (configuration CodemapConfiguration) merge(override CodemapConfiguration) CodemapConfiguration {
	result := configuration
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Tokens != nil {
		result.Tokens = cloneBool(override.Tokens)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (configuration ToolServerConfiguration) merge(override ToolServerConfiguration) ToolServerConfiguration {
	result := configuration
	if override.Address != "" {
		result.Address = override.Address
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
