package logging

import (
	"regexp"
	"strings"
)

// secretPatterns matches credential-shaped substrings that must never
// reach the log files in full.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|master[_-]?key|password|token)[=:\s]+["']?([^\s"']+)["']?`),
}

// MaskSecret masks a credential for log output, keeping just enough of
// the prefix to identify it.
func MaskSecret(value string) string {
	if len(value) <= 6 {
		return "***"
	}
	return value[:3] + "***" + value[len(value)-2:]
}

// MaskCode masks an access code for log output: the first two
// characters stay visible.
func MaskCode(code string) string {
	if len(code) <= 2 {
		return "***"
	}
	return code[:2] + strings.Repeat("*", len(code)-2)
}

// Redact masks credential-shaped substrings in free-form text, such as
// error messages that may echo a key back.
func Redact(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			if idx := strings.IndexAny(match, "=: "); idx >= 0 {
				return match[:idx+1] + MaskSecret(strings.Trim(match[idx+1:], "\"' "))
			}
			return MaskSecret(match)
		})
	}
	return s
}
