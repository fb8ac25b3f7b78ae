package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands ${VAR} and $VAR references in s.
// A braced reference to an unset variable is an error; "$$" is a literal "$".
func ExpandEnvStrict(s string) (string, error) {
	const dollar = "\x00IMAGECACHE_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	seen := make(map[string]bool)
	for _, match := range envRefPattern.FindAllStringSubmatch(s, -1) {
		name := match[1]
		if _, ok := os.LookupEnv(name); !ok && !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	return strings.ReplaceAll(os.ExpandEnv(s), dollar, "$"), nil
}

// expandDir expands env references in a directory setting and cleans it.
// Empty values stay empty.
func expandDir(name, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", fmt.Errorf("config: %s: %w", name, err)
	}
	return filepath.Clean(expanded), nil
}
