package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
}

// Substrings of JSON keys or query parameter names whose values are never logged.
// Matching is case-insensitive, so "PasswordSII" hits "password".
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"api_key",
	"authorization",
	"credential",
}

// Keys whose values identify the SII login and are partially masked.
var maskedFields = map[string]bool{
	"rutusuario": true,
}

// SanitizeHeaders flattens headers for logging with credentials redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
			continue
		}
		sanitized[key] = strings.Join(values, ", ")
	}
	return sanitized
}

// SanitizeBody returns a JSON rendition of body safe to log. JSON payloads
// have sensitive fields redacted; anything else is wrapped as text. Bodies
// over maxSize are reduced to a redacted preview.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if !utf8.Valid(body) {
		return marshal(map[string]any{"_binary": true, "_size": len(body)})
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return marshal(map[string]any{"_raw": truncate(string(body), maxSize), "_format": "text"})
	}

	result := marshal(sanitizeValue(data))
	if maxSize > 0 && len(result) > maxSize {
		return marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(result[:maxSize]),
		})
	}
	return result
}

// SanitizeURL redacts sensitive query parameter values.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	query := u.Query()
	changed := false
	for key := range query {
		if isSensitive(key) {
			query.Set(key, redactedValue)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// MaskRUT keeps only the last three characters of a RUT, e.g. "*******8-9".
func MaskRUT(rut string) string {
	runes := []rune(rut)
	if len(runes) <= 3 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-3) + string(runes[len(runes)-3:])
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		sanitized := make(map[string]any, len(val))
		for key, value := range val {
			switch {
			case isSensitive(key):
				sanitized[key] = redactedValue
			case maskedFields[strings.ToLower(key)]:
				if s, ok := value.(string); ok {
					sanitized[key] = MaskRUT(s)
				} else {
					sanitized[key] = redactedValue
				}
			default:
				sanitized[key] = sanitizeValue(value)
			}
		}
		return sanitized
	case []any:
		sanitized := make([]any, len(val))
		for i, value := range val {
			sanitized[i] = sanitizeValue(value)
		}
		return sanitized
	default:
		return val
	}
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func truncate(s string, maxSize int) string {
	if maxSize > 0 && len(s) > maxSize {
		return s[:maxSize]
	}
	return s
}

func marshal(v any) json.RawMessage {
	result, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"_format":"unserializable"}`)
	}
	return result
}
