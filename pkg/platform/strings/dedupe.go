// Package strings holds small string-slice helpers shared by handlers.
package strings

import "strings"

// DedupeAndTrimLower trims, lowercases and dedupes a slice, dropping blank
// entries. First-occurrence order is preserved. Participant ID lists run
// through this before parsing so the same uuid in different casing counts
// once.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}
