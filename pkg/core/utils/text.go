package utils

import "unicode/utf8"

// SafeTruncate cuts s to at most max bytes without splitting a multi-byte
// rune, backing up to the previous rune boundary when max lands inside one.
func SafeTruncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
