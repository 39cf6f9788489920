// Package masking redacts credential-shaped values before Action Record
// fields are persisted or broadcast (SPEC_FULL.md "Credential-shaped
// value masking in Action Records"). It does not implement credential
// encryption or storage — spec.md's "credential encryption utilities"
// stays an out-of-scope external collaborator.
package masking

import "regexp"

// sensitiveSelectorPattern flags a target_selector as carrying a
// credential-shaped value without inspecting the value's content at
// all — e.g. input[type=password], #api-token, [name=ssn]. This
// catches fields whose value is short, random-looking, or otherwise
// wouldn't match any of builtinPatterns (a 4-digit PIN, a non-prefixed
// API key) purely from how the page author labeled the field.
var sensitiveSelectorPattern = regexp.MustCompile(`(?i)(type=.?password|password|secret|token|api[_-]?key|ssn|ccv|cvv|card[_-]?number|pin)`)

// Service redacts credential-shaped strings. Stateless aside from its
// compiled pattern table; safe for concurrent use and created once at
// startup.
type Service struct {
	patterns []*CompiledPattern
}

// NewService builds a Service with the builtin pattern table compiled.
func NewService() *Service {
	return &Service{patterns: compileBuiltinPatterns()}
}

// MaskValue redacts value for persistence/broadcast as an Action
// Record's input_value or output_value. targetSelector is the CSS
// selector the value came from; an empty selector only applies the
// content-pattern sweep.
//
// If targetSelector looks sensitive (password/token/secret/etc. field),
// the entire value is replaced — masking by pattern alone would miss a
// typed password that happens not to match any builtin regex (e.g.
// "hunter2"). Otherwise, value passes through the builtin regex sweep,
// which still catches credential-shaped content in fields not flagged
// by selector (e.g. a page that echoes an API key into a read-only
// output span).
func (s *Service) MaskValue(value, targetSelector string) string {
	if value == "" {
		return value
	}
	if targetSelector != "" && sensitiveSelectorPattern.MatchString(targetSelector) {
		return "[MASKED_SENSITIVE_FIELD]"
	}
	return s.applyPatterns(value)
}

func (s *Service) applyPatterns(content string) string {
	masked := content
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
