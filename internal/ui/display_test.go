package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePercent(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"45.2%", 45.2, true},
		{" 100% ", 100, true},
		{"0%", 0, true},
		{"130%", 100, true},
		{"", 0, false},
		{"N/A%", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parsePercent(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, got, 0.001)
		})
	}
}

func TestRowName(t *testing.T) {
	assert.Equal(t, "Clip [140]", rowName("Clip", "140"))
	assert.Equal(t, "Clip", rowName("Clip", ""))
	assert.Equal(t, "… [en]", rowName("", "en"))
}
