package ai

import "strings"

// CleanResponse normalizes raw model output. Stray end-of-sequence tokens and
// markdown markers are stripped, spaces after newlines and double spaces are
// collapsed. Every backend response passes through it before any parsing.
func CleanResponse(response string) string {
	cleaned := strings.ReplaceAll(response, "</s>", "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, "\n ", "\n")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")

	for _, marker := range []string{"#", "*", "`"} {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}

	return cleaned
}
