package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces every storefront variable.
const Prefix = "STOREFRONT_"

// Get returns the value of the given environment variable or a fallback.
// The prefixed variant (STOREFRONT_<key>) wins over the bare key.
func Get(key, fallback string) string {
	if val := lookup(key); val != "" {
		return val
	}
	return fallback
}

// GetBool parses a boolean variable, returning fallback when unset or malformed.
func GetBool(key string, fallback bool) bool {
	raw := lookup(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func lookup(key string) string {
	if !strings.HasPrefix(key, Prefix) {
		if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
			return val
		}
	}
	return strings.TrimSpace(os.Getenv(key))
}
