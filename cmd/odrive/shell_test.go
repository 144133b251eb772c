package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectsResponse(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"r vbus_voltage", true},
		{"f 0", true},
		{"w axis0.requested_state 8", false},
		{"p 0 1.5 0 0", false},
		{"ss", false},
		{"sr", false},
		{"read", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, expectsResponse(tt.line))
		})
	}
}
