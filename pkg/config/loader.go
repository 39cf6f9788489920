package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SessiondYAMLConfig represents the complete sessiond.yaml file structure.
type SessiondYAMLConfig struct {
	Defaults *Defaults `yaml:"defaults"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure.
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load sessiond.yaml (defaults) and llm-providers.yaml from configDir
//  2. Expand environment variables
//  3. Layer ENCRYPTION_KEY/BROWSER_MODE/CDP_URL/BROWSER_CONTAINER_IMAGE
//     environment overrides onto the loaded defaults (spec §6)
//  4. Build the LLM provider registry
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully", "llm_providers", stats.LLMProviders)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	sessiondConfig, err := loader.loadSessiondYAML()
	if err != nil {
		return nil, NewLoadError("sessiond.yaml", err)
	}

	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	defaults := sessiondConfig.Defaults
	if defaults == nil {
		defaults = &Defaults{}
	}
	applyEnvOverrides(defaults)

	return &Config{
		configDir:           configDir,
		Defaults:            defaults,
		LLMProviderRegistry: NewLLMProviderRegistry(toLLMProviderPointers(llmProviders)),
		Notify:              loadNotifyConfigFromEnv(),
		Retention:           loadRetentionConfigFromEnv(),
	}, nil
}

// applyEnvOverrides layers spec §6's recognized environment variables onto
// defaults loaded from YAML. Environment always wins, matching the
// container-deployment convention of configuring secrets/per-host settings
// through the process environment rather than checked-in YAML.
func applyEnvOverrides(defaults *Defaults) {
	if v := os.Getenv("BROWSER_MODE"); v != "" {
		defaults.BrowserMode = BrowserMode(v)
	}
	if v := os.Getenv("CDP_URL"); v != "" {
		defaults.CDPURL = v
	}
	if v := os.Getenv("BROWSER_CONTAINER_IMAGE"); v != "" {
		defaults.BrowserContainerImage = v
	}
	defaults.EncryptionKey = os.Getenv("ENCRYPTION_KEY")
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand environment variables using standard shell-style syntax.
	// ExpandEnv has no error path; text that is not a $ reference is left
	// as is for the YAML parser to handle (or reject with a clearer error
	// message).
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadSessiondYAML() (*SessiondYAMLConfig, error) {
	var config SessiondYAMLConfig
	if err := l.loadYAML("sessiond.yaml", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	var config LLMProvidersYAMLConfig
	config.LLMProviders = make(map[string]LLMProviderConfig)
	if err := l.loadYAML("llm-providers.yaml", &config); err != nil {
		return nil, err
	}
	return config.LLMProviders, nil
}
