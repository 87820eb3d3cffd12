package utils

import "strings"

// MinPasswordLength is the shortest secret accepted at registration.
const MinPasswordLength = 6

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
