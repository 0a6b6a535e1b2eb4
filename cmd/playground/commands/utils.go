// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: String truncation and console argument splitting
package commands

import (
	"strings"
)

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// splitArgs splits line into at most n parts: the first n-1 words and the
// rest of the line with its inner spacing kept.
func splitArgs(line string, n int) []string {
	var parts []string
	rest := strings.TrimSpace(line)
	for rest != "" && len(parts) < n-1 {
		i := strings.IndexAny(rest, " \t")
		if i < 0 {
			break
		}
		parts = append(parts, rest[:i])
		rest = strings.TrimLeft(rest[i:], " \t")
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
