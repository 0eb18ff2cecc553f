package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "drops blanks and trims",
			input:    []string{"  foo  ", "", "  ", "bar"},
			expected: []string{"foo", "bar"},
		},
		{
			name:     "case-insensitive dedupe keeps first-occurrence order",
			input:    []string{"Foo", "bar", "foo", "FOO", "BAR"},
			expected: []string{"foo", "bar"},
		},
		{
			name:     "same uuid in mixed casing counts once",
			input:    []string{"9B2F2B1E-0000-4000-8000-000000000001", "9b2f2b1e-0000-4000-8000-000000000001"},
			expected: []string{"9b2f2b1e-0000-4000-8000-000000000001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DedupeAndTrimLower(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}
