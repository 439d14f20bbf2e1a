package clarify

import (
	"testing"

	"intent-resolver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeOptions() []models.Option {
	return []models.Option{
		{ID: "svc-1", Label: "Deep Cleaning"},
		{ID: "svc-2", Label: "Car Wash"},
		{ID: "svc-3", Label: "Lawn Mowing"},
	}
}

func TestResolveReplyNumeral(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected string
		resolved bool
	}{
		{"bare numeral", "2", "svc-2", true},
		{"option prefix", "option 3", "svc-3", true},
		{"padded numeral", "  1  ", "svc-1", true},
		{"zero is out of range", "0", "", false},
		{"past the end", "4", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, ok := ResolveReply(tt.reply, threeOptions(), 80, 5)
			if !tt.resolved {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.expected, opt.ID)
		})
	}
}

func TestResolveReplyExactLabelAnyCase(t *testing.T) {
	opt, ok := ResolveReply("CAR WASH", threeOptions(), 80, 5)

	require.True(t, ok)
	assert.Equal(t, "svc-2", opt.ID)
}

func TestResolveReplyExactID(t *testing.T) {
	opt, ok := ResolveReply("svc-3", threeOptions(), 80, 5)

	require.True(t, ok)
	assert.Equal(t, "svc-3", opt.ID)
}

func TestResolveReplyDuplicateSurfaceUnresolved(t *testing.T) {
	options := []models.Option{
		{ID: "a", Label: "Standard"},
		{ID: "b", Label: "standard"},
	}

	_, ok := ResolveReply("standard", options, 80, 5)

	assert.False(t, ok, "a surface shared by two options cannot be picked")
}

func TestResolveReplyFuzzy(t *testing.T) {
	opt, ok := ResolveReply("car wsh", threeOptions(), 80, 5)

	require.True(t, ok)
	assert.Equal(t, "svc-2", opt.ID)
}

func TestResolveReplyBelowThreshold(t *testing.T) {
	_, ok := ResolveReply("pizza", threeOptions(), 80, 5)

	assert.False(t, ok)
}

func TestResolveReplyFuzzyTieUnresolved(t *testing.T) {
	options := []models.Option{
		{ID: "a", Label: "massage spa"},
		{ID: "b", Label: "passage spa"},
	}

	// Equidistant from both labels: the margin rule refuses to guess.
	_, ok := ResolveReply("sassage spa", options, 80, 5)

	assert.False(t, ok)
}

func TestResolveReplyEmpty(t *testing.T) {
	_, ok := ResolveReply("   ", threeOptions(), 80, 5)
	assert.False(t, ok)

	_, ok = ResolveReply("2", nil, 80, 5)
	assert.False(t, ok)
}
