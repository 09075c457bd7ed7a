package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
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
			name:     "trims whitespace",
			input:    []string{"  passport  ", "imm0008  ", "  imm5406"},
			expected: []string{"passport", "imm0008", "imm5406"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"passport", "imm0008", "passport", "imm5406", "imm0008"},
			expected: []string{"passport", "imm0008", "imm5406"},
		},
		{
			name:     "removes empty strings",
			input:    []string{"passport", "", "  ", "imm0008"},
			expected: []string{"passport", "imm0008"},
		},
		{
			name:     "preserves case",
			input:    []string{"Passport", "passport"},
			expected: []string{"Passport", "passport"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
