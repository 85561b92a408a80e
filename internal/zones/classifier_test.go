package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSensor(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected bool
	}{
		{"generic zone", "Zone", true},
		{"fire zone", "Fire", true},
		{"unlabeled", "", true},
		{"case insensitive", "ZONE", true},
		{"padded", "  zone  ", true},
		{"user access code", "User", false},
		{"unknown label", "Output", false},
		{"keypad", "Keypad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSensor(tt.label))
		})
	}
}
