// Package config handles application configuration management.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

const (
	// EnvPrefix prefixes every environment override, e.g. CREATE_NEXT_SAAS_TEMPLATE.
	EnvPrefix = "CREATE_NEXT_SAAS"

	configName = "create-next-saas"
	configType = "yaml"
)

// DefaultTemplate is the template fetched when none is configured.
const DefaultTemplate = "GeKaixing/next-saas-template#main"

// Load reads configuration from an optional file, environment variables and
// any flags already bound to viper. An empty cfgFile searches the standard
// locations.
func Load(cfgFile string) (*types.Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType(configType)
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.create-next-saas")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable - use defaults and env vars
	}

	var config types.Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults establishes default configuration values.
func setDefaults() {
	// Template
	viper.SetDefault("template", DefaultTemplate)
	viper.SetDefault("default_name", "my-app")

	// Fetching
	viper.SetDefault("fetch_mode", "tar")
	viper.SetDefault("cache", false)
	viper.SetDefault("cache_dir", defaultCacheDir())
	viper.SetDefault("force", true)
	viper.SetDefault("http_timeout", 2*time.Minute)

	// Install
	viper.SetDefault("skip_install", false)
	viper.SetDefault("default_package_manager", "npm")

	// Version control
	viper.SetDefault("vcs", "git")

	// System
	viper.SetDefault("log_level", "info")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "create-next-saas")
	}
	return filepath.Join(dir, "create-next-saas")
}

// validate checks that the configuration is valid.
func validate(config *types.Config) error {
	if strings.TrimSpace(config.Template) == "" {
		return fmt.Errorf("template must not be empty")
	}

	if config.DefaultName == "" {
		return fmt.Errorf("default_name must not be empty")
	}

	if config.FetchMode != "tar" && config.FetchMode != "git" {
		return fmt.Errorf("fetch_mode must be 'tar' or 'git', got '%s'", config.FetchMode)
	}

	if config.Cache && config.CacheDir == "" {
		return fmt.Errorf("cache_dir is required when cache is enabled")
	}

	if config.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", config.HTTPTimeout)
	}

	if config.DefaultPackageManager == "" {
		return fmt.Errorf("default_package_manager must not be empty")
	}

	switch config.VCS {
	case "git", "embedded", "none":
	default:
		return fmt.Errorf("vcs must be 'git', 'embedded' or 'none', got '%s'", config.VCS)
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got '%s'", config.LogLevel)
	}

	return nil
}

// GetConfiguredPath returns the path to the active config file.
func GetConfiguredPath() string {
	return viper.ConfigFileUsed()
}

// Marshal renders config as YAML.
func Marshal(config *types.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExample creates an example configuration file holding the defaults.
func WriteExample(path string) error {
	setDefaults()

	config := types.Config{
		Template:              viper.GetString("template"),
		DefaultName:           viper.GetString("default_name"),
		FetchMode:             viper.GetString("fetch_mode"),
		Cache:                 viper.GetBool("cache"),
		CacheDir:              viper.GetString("cache_dir"),
		Force:                 viper.GetBool("force"),
		HTTPTimeout:           viper.GetDuration("http_timeout"),
		SkipInstall:           viper.GetBool("skip_install"),
		DefaultPackageManager: viper.GetString("default_package_manager"),
		VCS:                   viper.GetString("vcs"),
		LogLevel:              viper.GetString("log_level"),
	}

	body, err := Marshal(&config)
	if err != nil {
		return err
	}

	header := "# create-next-saas configuration file\n" +
		"# fetch_mode: tar | git    vcs: git | embedded | none\n" +
		"# log_level: debug | info | warn | error\n"

	return os.WriteFile(path, append([]byte(header), body...), 0644)
}
