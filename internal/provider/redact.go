package provider

import "regexp"

// redactPattern pairs a name with a credential-shaped regex. Matches are
// replaced before error text is logged or surfaced.
type redactPattern struct {
	name  string
	regex *regexp.Regexp
}

var redactPatterns = []redactPattern{
	{"api_key", regexp.MustCompile(`(?i)(api[_-]?key|authorization|bearer)[=:\s]+[A-Za-z0-9\-_\.]{8,}`)},
	{"openai_key", regexp.MustCompile(`sk-[A-Za-z0-9\-_]{16,}`)},
	{"aws_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"github_token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`)},
	{"connection_string", regexp.MustCompile(`(?:postgres|mysql|mongodb|redis)://[^\s]+`)},
}

// Redact scrubs credential-shaped substrings from text so secrets never
// appear in logs or surfaced errors.
func Redact(text string) string {
	for _, p := range redactPatterns {
		text = p.regex.ReplaceAllString(text, "[redacted:"+p.name+"]")
	}
	return text
}
