package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeScore_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, NormalizeScore(0))
	assert.Equal(t, 0.0, NormalizeScore(1))
	assert.InDelta(t, 0.5, NormalizeScore(0.5), 1e-9)
}

func TestNormalizeScore_UnboundedDistance(t *testing.T) {
	// Monotonically decreasing past 1, approaching but never reaching 0.
	prev := NormalizeScore(1.0)
	for _, s := range []float64{1.5, 2, 5, 10, 100, 10000} {
		sim := NormalizeScore(s)
		assert.Less(t, sim, prev, "similarity must decrease at s=%f", s)
		assert.Positive(t, sim)
		prev = sim
	}
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 0.1235, RoundScore(0.12345))
	assert.Equal(t, 0.1234, RoundScore(0.12341))
	assert.Equal(t, 1.0, RoundScore(1.0))
	assert.Equal(t, 0.0, RoundScore(0.00001))
}
