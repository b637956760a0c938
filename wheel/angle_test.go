package wheel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionFromDrag(t *testing.T) {
	assert.InDelta(t, 2.5, PositionFromDrag(0, 250, 100), 1e-12)
	assert.InDelta(t, 0.25, PositionFromDrag(1, -75, 100), 1e-12)

	t.Run("non-positive pan distance keeps the anchor", func(t *testing.T) {
		assert.Equal(t, 1.5, PositionFromDrag(1.5, 300, 0))
		assert.Equal(t, 1.5, PositionFromDrag(1.5, 300, -10))
	})
}

func TestNormalize_CyclingIgnoresFullTurns(t *testing.T) {
	positions := []float64{-3.7, -0.5, 0, 0.25, 2.5, 9.99}
	for n := 1; n <= 7; n++ {
		for _, p := range positions {
			want := Normalize(p, n, true)
			assert.GreaterOrEqual(t, want, 0.0)
			assert.Less(t, want, float64(n))
			for k := -3; k <= 3; k++ {
				got := Normalize(p+float64(k*n), n, true)
				assert.InDelta(t, want, got, 1e-9, "n=%d p=%v k=%d", n, p, k)
			}
		}
	}
}

func TestNormalize_NonCyclingClamps(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(-4.2, 5, false))
	assert.Equal(t, 4.0, Normalize(42, 5, false))
	assert.Equal(t, 2.5, Normalize(2.5, 5, false))
	assert.Equal(t, 0.0, Normalize(3, 1, false))
}

func TestNormalize_EmptyWheel(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(3.3, 0, true))
	assert.Equal(t, 0.0, Normalize(3.3, 0, false))
}

func TestNormalize_Infinity(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(math.Inf(1), 4, true))
	assert.Equal(t, 0.0, Normalize(math.Inf(-1), 4, true))
	assert.Equal(t, 3.0, Normalize(math.Inf(1), 4, false))
	assert.Equal(t, 0.0, Normalize(math.Inf(-1), 4, false))

	assert.Equal(t, 0, NearestIndex(math.Inf(1), 4, true))
	assert.Equal(t, 3, NearestIndex(math.Inf(1), 4, false))
	assert.Equal(t, 0, NearestIndex(math.Inf(-1), 4, false))
}

func TestNearestIndex(t *testing.T) {
	tests := []struct {
		name    string
		pos     float64
		n       int
		cycling bool
		want    int
	}{
		{"half rounds up on two slots", 0.5, 2, true, 1},
		{"half rounds up", 2.5, 4, true, 3},
		{"one and a half", 1.5, 4, false, 2},
		{"below half", 1.49, 4, false, 1},
		{"wraps past the last slot", 3.5, 4, true, 0},
		{"clamps past the last slot", 3.5, 4, false, 3},
		{"negative wraps", -0.6, 4, true, 3},
		{"negative half rounds up to zero", -0.5, 4, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearestIndex(tt.pos, tt.n, tt.cycling))
		})
	}
}

func TestDistance_ShorterArcWhenCycling(t *testing.T) {
	assert.InDelta(t, 1, Distance(3, 0, 4, true), 1e-12)
	assert.InDelta(t, -1, Distance(0, 3, 4, true), 1e-12)
	assert.InDelta(t, 0.5, Distance(2.5, 3, 4, true), 1e-12)
	// Exact half-turn ties go forward.
	assert.InDelta(t, 2, Distance(0, 2, 4, true), 1e-12)
	assert.InDelta(t, 2, Distance(2, 0, 4, true), 1e-12)
	// Without cycling the straight distance is used.
	assert.InDelta(t, 3, Distance(0, 3, 4, false), 1e-12)
}
