package config

import (
	"os"
	"regexp"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// ExpandEnv substitutes ${VAR}, $VAR and ${VAR:-default} references with
// environment values. Unset variables without a default expand to the
// empty string.
func ExpandEnv(value string) string {
	if value == "" || !strings.Contains(value, "$") {
		return value
	}
	return envRefPattern.ReplaceAllStringFunc(value, func(match string) string {
		ref := strings.TrimPrefix(match, "$")
		ref = strings.TrimPrefix(ref, "{")
		ref = strings.TrimSuffix(ref, "}")

		name, fallback := ref, ""
		if idx := strings.Index(ref, ":-"); idx >= 0 {
			name, fallback = ref[:idx], ref[idx+2:]
		} else if idx := strings.Index(ref, ":"); idx >= 0 {
			name, fallback = ref[:idx], ref[idx+1:]
		}

		if resolved, ok := os.LookupEnv(name); ok {
			return resolved
		}
		return fallback
	})
}
