// Package logging holds helpers for keeping secrets out of log output.
package logging

import "regexp"

// RedactedText replaces sensitive values in log output.
const RedactedText = "[REDACTED]"

var (
	// password=..., pwd=..., pass=... in key=value DSNs
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URL-form connection strings
	credentialedURLPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)

	// api_key=..., apikey=... query or form parameters
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey)=[A-Za-z0-9-_]{8,}`)

	// Bearer tokens in dumped headers
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)
)

// SanitizeDSN redacts credentials from a database or service connection
// string before it reaches a log line. Both key=value and URL forms are
// handled.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(dsn, "${1}="+RedactedText)
	return credentialedURLPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
}

// SanitizeEndpoint redacts API keys and bearer tokens from an endpoint URL or
// request description.
func SanitizeEndpoint(s string) string {
	if s == "" {
		return ""
	}
	sanitized := apiKeyPattern.ReplaceAllString(s, "${1}="+RedactedText)
	return bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
}
