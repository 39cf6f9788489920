package config

// Defaults contains system-wide default configuration (spec §6
// "Configuration (recognized options)"), layered under per-session
// agent_config overrides.
type Defaults struct {
	// LLM provider default for new sessions, a key into LLMProviderRegistry.
	LLMProvider string `yaml:"llm_provider,omitempty"`

	// BrowserMode selects local-launch vs. remote-CDP connection.
	BrowserMode BrowserMode `yaml:"browser_mode,omitempty"`

	// CDPURL is the base DevTools URL to connect to when BrowserMode
	// requires one (container/custom).
	CDPURL string `yaml:"cdp_url,omitempty"`

	// BrowserContainerImage is the image spawned for container mode.
	BrowserContainerImage string `yaml:"browser_container_image,omitempty"`

	// EncryptionKey is the symmetric key for the credential store (spec
	// §6: "not used by core"). Loaded only from the ENCRYPTION_KEY
	// environment variable, never from YAML — see loader.go.
	EncryptionKey string `yaml:"-"`

	// MaxSteps is the default agent_config.maxSteps for new sessions.
	MaxSteps int `yaml:"max_steps,omitempty" validate:"omitempty,min=1"`

	// EnableOwlVision is the default agent_config.enableOwlVision for new
	// sessions.
	EnableOwlVision bool `yaml:"enable_owl_vision,omitempty"`
}
