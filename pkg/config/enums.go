package config

// BrowserMode selects how the engine obtains its browser's CDP endpoint
// (spec §6 "Configuration (recognized options)").
type BrowserMode string

const (
	// BrowserModeDirect launches a local browser headful, in-process.
	BrowserModeDirect BrowserMode = "direct"
	// BrowserModeContainer connects to a browser run in a provisioned
	// container, reached at CDPURL.
	BrowserModeContainer BrowserMode = "container"
	// BrowserModeCustom connects to any other remote CDP endpoint at
	// CDPURL, bypassing container provisioning entirely.
	BrowserModeCustom BrowserMode = "custom"
)

// IsValid reports whether the browser mode is one of the three spec §6
// names (empty string is NOT valid — must be explicit).
func (m BrowserMode) IsValid() bool {
	switch m {
	case BrowserModeDirect, BrowserModeContainer, BrowserModeCustom:
		return true
	default:
		return false
	}
}

// RequiresCDPURL reports whether this mode connects to a remote browser
// rather than launching a local one.
func (m BrowserMode) RequiresCDPURL() bool {
	return m == BrowserModeContainer || m == BrowserModeCustom
}

// LLMBackend selects which LLM-framework code path the gRPC sidecar uses
// to serve a Generate call (spec.md's out-of-process LLM backend —
// pkg/llm's sidecar holds the actual provider SDKs).
type LLMBackend string

const (
	// LLMBackendNativeGemini calls the provider's native SDK directly.
	LLMBackendNativeGemini LLMBackend = "native_gemini"
	// LLMBackendLangChain routes the call through a LangChain-based
	// abstraction layer in the sidecar.
	LLMBackendLangChain LLMBackend = "langchain"
)

// LLMProviderType defines supported LLM providers.
type LLMProviderType string

const (
	// LLMProviderTypeGoogle is Google Gemini API
	LLMProviderTypeGoogle LLMProviderType = "google"
	// LLMProviderTypeOpenAI is OpenAI API
	LLMProviderTypeOpenAI LLMProviderType = "openai"
	// LLMProviderTypeAnthropic is Anthropic Claude API
	LLMProviderTypeAnthropic LLMProviderType = "anthropic"
	// LLMProviderTypeXAI is xAI Grok API
	LLMProviderTypeXAI LLMProviderType = "xai"
	// LLMProviderTypeVertexAI is Google Vertex AI
	LLMProviderTypeVertexAI LLMProviderType = "vertexai"
)

// IsValid checks if the LLM provider type is valid.
func (t LLMProviderType) IsValid() bool {
	switch t {
	case LLMProviderTypeGoogle,
		LLMProviderTypeOpenAI,
		LLMProviderTypeAnthropic,
		LLMProviderTypeXAI,
		LLMProviderTypeVertexAI:
		return true
	default:
		return false
	}
}

// GoogleNativeTool defines Google/Gemini native tools.
type GoogleNativeTool string

const (
	// GoogleNativeToolGoogleSearch enables Google Search grounding
	GoogleNativeToolGoogleSearch GoogleNativeTool = "google_search"
	// GoogleNativeToolCodeExecution enables code execution
	GoogleNativeToolCodeExecution GoogleNativeTool = "code_execution"
	// GoogleNativeToolURLContext enables URL context fetching
	GoogleNativeToolURLContext GoogleNativeTool = "url_context"
)

// IsValid checks if the Google native tool is valid.
func (t GoogleNativeTool) IsValid() bool {
	return t == GoogleNativeToolGoogleSearch ||
		t == GoogleNativeToolCodeExecution ||
		t == GoogleNativeToolURLContext
}
