package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace",
			input:    "two   bags\tof  rice",
			expected: "two bags of rice",
		},
		{
			name:     "lowercases",
			input:    "Book A Massage",
			expected: "book a massage",
		},
		{
			name:     "joins spaced hyphens",
			input:    "coca - cola",
			expected: "coca-cola",
		},
		{
			name:     "folds en dash",
			input:    "coca – cola",
			expected: "coca-cola",
		},
		{
			name:     "splits digit letter boundary",
			input:    "5kg sugar",
			expected: "5 kg sugar",
		},
		{
			name:     "splits letter digit boundary",
			input:    "room101",
			expected: "room 101",
		},
		{
			name:     "possessive keeps trailing s",
			input:    "Kellogg's cornflakes",
			expected: "kelloggs cornflakes",
		},
		{
			name:     "strips punctuation artifacts",
			input:    "book a haircut, please!",
			expected: "book a haircut please",
		},
		{
			name:     "indefinite article before unit becomes numeral",
			input:    "a bag of rice",
			expected: "1 bag of rice",
		},
		{
			name:     "one before plural unit",
			input:    "one bottles of milk",
			expected: "1 bottles of milk",
		},
		{
			name:     "ordinal suffix splits",
			input:    "oct 5th to 9th",
			expected: "oct 5 th to 9 th",
		},
		{
			name:     "time separator survives",
			input:    "at 5:30 PM",
			expected: "at 5:30 pm",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Apply(tt.input))
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	inputs := []string{
		"Book a massage for 2 at 5pm",
		"coca – cola  1.5l",
		"Kellogg's 5kg pack, oct 29th to 2nd",
		"a bag of rice and an haircut",
		"   ",
		"noon & midnight",
	}

	for _, input := range inputs {
		once := Apply(input)
		twice := Apply(once)
		assert.Equal(t, once, twice, "normalization must be idempotent for %q", input)
	}
}

func TestTokens(t *testing.T) {
	assert.Nil(t, Tokens(""))
	assert.Equal(t, []string{"book", "a", "table"}, Tokens("book a table"))
}
