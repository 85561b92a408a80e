package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Front Door", "front-door"},
		{"Déjà Vu Sensor", "deja-vu-sensor"},
		{"  Garage  ", "garage"},
		{"PIR #2 (Hall)", "pir-2-hall"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Slugify(tt.in), "input %q", tt.in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Front Door", Normalize("Front Door\x00\x00 "))
	assert.Equal(t, "", Normalize("\x00"))
}
