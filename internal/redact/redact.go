// Package redact scrubs credentials, tokens, SQL values and file system
// details from error text before it reaches a log line or a client.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	StackTracePlaceholder = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// rules run in order; earlier rules see the original text.
var rules = []rule{
	// userinfo of postgres and redis connection strings
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|rediss?)://[^\s@/]*@`), "${1}://" + CredentialPlaceholder + "@"},
	{regexp.MustCompile(`goroutine \d+ \[[^\]]*\]:[\s\S]*`), StackTracePlaceholder},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`), "Bearer " + TokenPlaceholder},
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)\b(password|passwd|pwd|jwt_secret|secret|api_key|token)\s*[=:]\s*("[^"]*"|'[^']*'|[^\s,;&]+)`), "${1}=" + Placeholder},
	// bound parameters and literals of SQL statements
	{regexp.MustCompile(`\b(WHERE|VALUES)\s.*`), "${1} " + SQLPlaceholder},
	{regexp.MustCompile(`(?:/[\w.-]+){3,}`), PathPlaceholder},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}
	out := input
	for _, r := range rules {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	return out
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
