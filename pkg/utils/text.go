// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Clip returns s cut to at most maxChars runes. No marker is appended; context
// budgets are hard limits, not display truncation. If maxChars is 0 or
// negative, returns s unchanged.
func Clip(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}

// Truncate returns s truncated to maxLen bytes, with "..." appended if truncated.
// Used for log/CLI display only. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// NormalizeQuery lowercases and trims the input for small-talk matching.
func NormalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
