package masking

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatterns is the fixed set of credential-shaped value patterns
// applied to every Action Record field passed through MaskValue.
// Trimmed from the teacher's 15-entry builtin masking pattern set down to
// the provider-agnostic ones: the teacher's Kubernetes-specific entries
// (certificate_authority_data, kubernetes_secret code masker) have no
// analogue in a browser-automation domain, since there are no Kubernetes
// manifests flowing through Action Records.
var builtinPatterns = []struct {
	name        string
	pattern     string
	replacement string
}{
	{"api_key", `(?i)(api[_-]?key["\s:=]+)([A-Za-z0-9_\-]{16,})`, "${1}[MASKED_API_KEY]"},
	{"password", `(?i)(password["\s:=]+)([^\s"]{8,})`, "${1}[MASKED_PASSWORD]"},
	{"token", `(?i)(token["\s:=]+)([A-Za-z0-9_\-.]{16,})`, "${1}[MASKED_TOKEN]"},
	{"private_key", `(?i)(private[_-]?key["\s:=]+)([^\s"]{8,})`, "${1}[MASKED_PRIVATE_KEY]"},
	{"secret_key", `(?i)(secret[_-]?key["\s:=]+)([^\s"]{8,})`, "${1}[MASKED_SECRET_KEY]"},
	{"certificate", `-----BEGIN [A-Z ]+-----[\s\S]+?-----END [A-Z ]+-----`, "[MASKED_CERTIFICATE]"},
	{"aws_access_key", `AKIA[0-9A-Z]{16}`, "[MASKED_AWS_KEY]"},
	{"aws_secret_key", `(?i)(aws_secret_access_key["\s:=]+)([A-Za-z0-9/+=]{40})`, "${1}[MASKED_AWS_SECRET]"},
	{"github_token", `ghp_[A-Za-z0-9]{20,}`, "[MASKED_GITHUB_TOKEN]"},
	{"slack_token", `xox[baprs]-[A-Za-z0-9-]{10,}`, "[MASKED_SLACK_TOKEN]"},
	{"ssh_key", `ssh-(rsa|ed25519|dss) [A-Za-z0-9+/=]{20,}`, "[MASKED_SSH_KEY]"},
	{"email", `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`, "[MASKED_EMAIL]"},
}

// compileBuiltinPatterns compiles builtinPatterns. Invalid patterns would
// be a programming error, not a runtime condition, so this panics rather
// than returning an error — matching the teacher's fail-fast posture for
// its own hardcoded regex table.
func compileBuiltinPatterns() []*CompiledPattern {
	compiled := make([]*CompiledPattern, 0, len(builtinPatterns))
	for _, p := range builtinPatterns {
		compiled = append(compiled, &CompiledPattern{
			Name:        p.name,
			Regex:       regexp.MustCompile(p.pattern),
			Replacement: p.replacement,
		})
	}
	return compiled
}
