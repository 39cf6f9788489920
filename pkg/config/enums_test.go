package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowserModeIsValid(t *testing.T) {
	tests := []struct {
		name  string
		mode  BrowserMode
		valid bool
	}{
		{"direct", BrowserModeDirect, true},
		{"container", BrowserModeContainer, true},
		{"custom", BrowserModeCustom, true},
		{"invalid", BrowserMode("invalid"), false},
		{"empty", BrowserMode(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.mode.IsValid())
		})
	}
}

func TestBrowserModeRequiresCDPURL(t *testing.T) {
	assert.False(t, BrowserModeDirect.RequiresCDPURL())
	assert.True(t, BrowserModeContainer.RequiresCDPURL())
	assert.True(t, BrowserModeCustom.RequiresCDPURL())
}

func TestLLMBackendConstants(t *testing.T) {
	assert.Equal(t, LLMBackend("native_gemini"), LLMBackendNativeGemini)
	assert.Equal(t, LLMBackend("langchain"), LLMBackendLangChain)
}

func TestLLMProviderTypeIsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider LLMProviderType
		valid    bool
	}{
		{"google", LLMProviderTypeGoogle, true},
		{"openai", LLMProviderTypeOpenAI, true},
		{"anthropic", LLMProviderTypeAnthropic, true},
		{"xai", LLMProviderTypeXAI, true},
		{"vertexai", LLMProviderTypeVertexAI, true},
		{"invalid", LLMProviderType("invalid"), false},
		{"empty", LLMProviderType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
		})
	}
}

func TestGoogleNativeToolIsValid(t *testing.T) {
	tests := []struct {
		name  string
		tool  GoogleNativeTool
		valid bool
	}{
		{"google_search", GoogleNativeToolGoogleSearch, true},
		{"code_execution", GoogleNativeToolCodeExecution, true},
		{"url_context", GoogleNativeToolURLContext, true},
		{"invalid", GoogleNativeTool("invalid"), false},
		{"empty", GoogleNativeTool(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.tool.IsValid())
		})
	}
}
