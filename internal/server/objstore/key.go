package objstore

import (
	"fmt"
	"strings"
	"unicode"
)

const maxFilenameLen = 200

// SanitizeFilename rewrites a client-supplied filename into a form that is
// safe to embed in a storage key: path separators are stripped, whitespace
// and any rune outside letters, digits, '.', '_' and '-' become '_', and the
// result is capped at 200 characters. An empty result becomes "unnamed".
func SanitizeFilename(name string) string {
	// Drop any directory part, whichever separator the client used.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	safe := b.String()
	if runes := []rune(safe); len(runes) > maxFilenameLen {
		safe = string(runes[:maxFilenameLen])
	}
	safe = strings.Trim(safe, "_")
	if safe == "" || strings.Trim(safe, ".") == "" {
		return "unnamed"
	}
	return safe
}

// MakeKey builds the deterministic storage key for a file:
// users/{owner}/{fileID}/{sanitized filename}.
func MakeKey(owner, fileID, filename string) string {
	return fmt.Sprintf("users/%s/%s/%s", owner, fileID, SanitizeFilename(filename))
}
