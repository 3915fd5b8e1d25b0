package util

import "strings"

func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CountWords counts whitespace-separated words in a text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
