package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret or another file-backed value.
type Source struct {
	// Name is used in error messages to give more context about the value.
	Name string
	// Value is an inline value provided via configuration or flags.
	Value string
	// File points to a file containing the value. When set it takes
	// precedence over Value.
	File string
	// Optional makes an unconfigured source resolve to an empty string
	// instead of an error. A configured file that cannot be read still fails.
	Optional bool
}

// Load returns the resolved value from the provided source. When File is set
// it takes precedence over Value. The returned value is always trimmed. An
// error is returned when a required source has neither File nor Value set.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		src.Value = string(data)
	}

	value := strings.TrimSpace(src.Value)
	if value == "" {
		if file != "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		if src.Optional {
			return "", nil
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return value, nil
}
