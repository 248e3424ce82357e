package secrets

// DefaultRules returns the rule set applied to job messages and deployment errors.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "basic-auth-url",
			Description: "URL with embedded credentials",
			Pattern:     `(?i)[a-z][a-z0-9+.\-]*://[^/\s:@]+:[^/\s@]+@`,
			Severity:    "high",
		},
		{
			ID:          "bearer-token",
			Description: "Bearer token",
			Pattern:     `(?i)bearer\s+[A-Za-z0-9_\-\.=]{16,}`,
			Severity:    "high",
		},
		{
			ID:          "basic-auth-header",
			Description: "Basic authorization header",
			Pattern:     `(?i)basic\s+[A-Za-z0-9+/]{12,}={0,2}`,
			Keywords:    []string{"authorization"},
			Severity:    "high",
		},
		{
			ID:          "anthropic-api-key",
			Description: "Anthropic API key",
			Pattern:     `sk-ant-[A-Za-z0-9_\-]{20,}`,
			Severity:    "high",
		},
		{
			ID:          "openai-api-key",
			Description: "OpenAI API key",
			Pattern:     `sk-(?:proj-)?[A-Za-z0-9_\-]{32,}`,
			Severity:    "high",
		},
		{
			// WordPress application passwords are six groups of four.
			ID:          "wp-application-password",
			Description: "WordPress application password",
			Pattern:     `\b[A-Za-z0-9]{4}(?: [A-Za-z0-9]{4}){5}\b`,
			Keywords:    []string{"password", "application", "wp_", "auth"},
			Severity:    "high",
		},
		{
			ID:          "private-key-block",
			Description: "Private key",
			Pattern:     `-----BEGIN [A-Z ]*PRIVATE KEY-----(?s:.*?)-----END [A-Z ]*PRIVATE KEY-----`,
			Severity:    "high",
		},
		{
			ID:          "private-key-header",
			Description: "Private key header",
			Pattern:     `-----BEGIN [A-Z ]*PRIVATE KEY-----`,
			Severity:    "high",
		},
		{
			ID:          "password-assignment",
			Description: "Password or secret assignment",
			Pattern:     `(?i)(?:password|passwd|pwd|secret|api[_-]?key)\s*[:=]\s*['"]?[^\s'"&,]{4,}['"]?`,
			Severity:    "high",
		},
		{
			ID:          "jwt",
			Description: "JSON Web Token",
			Pattern:     `eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`,
			Severity:    "medium",
		},
	}
}
