package env

import (
	"os"
	"strings"
)

// Get returns the named environment variable, or fallback when it is
// unset or whitespace-only.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
