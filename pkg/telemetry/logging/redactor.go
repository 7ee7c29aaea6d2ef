package logging

import (
	"regexp"
	"strings"
)

// Redactor masks sensitive values in log arguments. Values are matched both
// by key name and by content pattern; maps and slices are walked.
type Redactor struct {
	patterns      []redactPattern
	sensitiveKeys []string
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "***@***"},
			{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
			{regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`), "****-****-****-****"},
			{regexp.MustCompile(`(sk-[a-zA-Z0-9]+)`), "sk-***"},
		},
		sensitiveKeys: []string{
			"password", "passwd", "secret", "token",
			"api_key", "apikey", "authorization", "private_key",
		},
	}
}

// RedactString applies the content patterns to s.
func (r *Redactor) RedactString(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactArgs redacts variadic log arguments of the form key1, value1, ...
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	copy(out, args)
	for i := 1; i < len(out); i += 2 {
		key, _ := out[i-1].(string)
		out[i] = r.redact(key, out[i])
	}
	return out
}

// RedactValue redacts a decoded JSON value, such as tool call arguments.
func (r *Redactor) RedactValue(v any) any {
	return r.redact("", v)
}

func (r *Redactor) redact(key string, v any) any {
	if key != "" && r.isSensitiveKey(key) {
		if v == nil {
			return nil
		}
		return "***"
	}
	switch val := v.(type) {
	case string:
		return r.RedactString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.redact(k, item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.redact("", item)
		}
		return out
	default:
		return v
	}
}

func (r *Redactor) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range r.sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
