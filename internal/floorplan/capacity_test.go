package floorplan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dinefloor/backend/internal/models"
)

func intp(n int) *int { return &n }

func TestCalculateEmpty(t *testing.T) {
	assert.Equal(t, Capacity{}, Calculate(nil))
	assert.Equal(t, Capacity{}, Calculate([]models.Table{}))
}

func TestCalculateFallbackChains(t *testing.T) {
	// Only max set: min and std fall back to max.
	c := Calculate([]models.Table{{SeatsMax: intp(6)}})
	assert.Equal(t, Capacity{Min: 6, Std: 6, Max: 6}, c)

	// Only std set: min falls back to std, max falls back to std.
	c = Calculate([]models.Table{{SeatsStd: intp(4)}})
	assert.Equal(t, Capacity{Min: 4, Std: 4, Max: 4}, c)

	// All three set: no fallbacks.
	c = Calculate([]models.Table{{SeatsMin: intp(2), SeatsStd: intp(4), SeatsMax: intp(6)}})
	assert.Equal(t, Capacity{Min: 2, Std: 4, Max: 6}, c)

	// Nothing set counts as zero.
	c = Calculate([]models.Table{{}})
	assert.Equal(t, Capacity{}, c)
}

func TestCalculateAdditiveOverDisjointSets(t *testing.T) {
	a := []models.Table{
		{ID: 1, SeatsMin: intp(1), SeatsStd: intp(2), SeatsMax: intp(3)},
		{ID: 2, SeatsStd: intp(4)},
	}
	b := []models.Table{
		{ID: 3, SeatsMax: intp(8)},
		{ID: 4},
	}

	union := append(append([]models.Table{}, a...), b...)
	assert.Equal(t, Calculate(a).Add(Calculate(b)), Calculate(union))
}
