package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/util/validation"
)

func TestJobName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "pulse", "check-pulse"},
		{"uppercase lowered", "MyCheck", "check-mycheck"},
		{"special chars replaced", "web check!", "check-web-check"},
		{"empty falls back", "", "check-x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JobName(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Empty(t, validation.IsDNS1123Subdomain(got))
		})
	}
}

func TestJobNameTruncation(t *testing.T) {
	got := JobName(strings.Repeat("a", 300))
	assert.LessOrEqual(t, len(got), validation.DNS1123SubdomainMaxLength)
	assert.Empty(t, validation.IsDNS1123Subdomain(got))
}

func TestToRFC1123Label(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already valid", "valid-name", "valid-name"},
		{"uppercase lowered", "UPPERCASE", "uppercase"},
		{"spaces replaced", "hello world", "hello-world"},
		{"invalid run collapsed", "hello!@#world", "hello-world"},
		{"leading and trailing trimmed", "-_pulse_-", "pulse"},
		{"only invalid chars", "...---...", "x"},
		{"long value truncated", strings.Repeat("a", 100), strings.Repeat("a", validation.LabelValueMaxLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToRFC1123Label(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.Empty(t, validation.IsValidLabelValue(got))
		})
	}
}
