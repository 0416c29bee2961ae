package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"ColonSeparated", "04:a2:bc:7f", "04A2BC7F"},
		{"DashSeparated", "04-a2-bc-7f", "04A2BC7F"},
		{"AlreadyCanonical", "04A2BC7F", "04A2BC7F"},
		{"MixedSeparatorsAndCase", "04:A2-bc 7f", "04A2BC7F"},
		{"Whitespace", "  04 a2\tbc\n7f ", "04A2BC7F"},
		{"Empty", "", ""},
		{"SeparatorsOnly", "::--  ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestNormalizeIdentifiesSamePhysicalToken(t *testing.T) {
	assert.Equal(t, Normalize("04:a2:bc:7f"), Normalize("04A2BC7F"))
}
