package lecture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionAverage(t *testing.T) {
	t.Parallel()

	t.Run("no students yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, SectionAverage(map[string][]int{}, 0))
	})

	t.Run("identical ratings average exactly", func(t *testing.T) {
		// N students all rating R must produce exactly R, no drift.
		ratings := map[string][]int{}
		for _, name := range []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace"} {
			ratings[name] = []int{4, 1}
		}
		assert.Equal(t, 4.0, SectionAverage(ratings, 0))
		assert.Equal(t, 1.0, SectionAverage(ratings, 1))
	})

	t.Run("mixed ratings", func(t *testing.T) {
		ratings := map[string][]int{
			"alice": {5, 1},
			"bob":   {2, 1},
		}
		assert.Equal(t, 3.5, SectionAverage(ratings, 0))
	})
}

func TestRoundRating(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3.3, RoundRating(10.0/3.0))
	assert.Equal(t, 3.7, RoundRating(11.0/3.0))
	assert.Equal(t, 4.0, RoundRating(4.0))
	assert.Equal(t, 0.0, RoundRating(0))
}

func TestBelowThreshold(t *testing.T) {
	t.Parallel()

	sections := []Section{
		{Name: "A", Description: "a"},
		{Name: "B", Description: "b"},
		{Name: "C", Description: "c"},
	}

	low := BelowThreshold(sections, []int{4, 2, 1}, RatingThreshold)
	assert.Equal(t, []Rated{
		{Index: 1, Section: sections[1], Rating: 2},
		{Index: 2, Section: sections[2], Rating: 1},
	}, low)

	assert.Empty(t, BelowThreshold(sections, []int{3, 4, 5}, RatingThreshold))
}

func TestFinalPerSection(t *testing.T) {
	t.Parallel()

	ratings := map[string][]int{
		"alice": {5, 1},
		"bob":   {5, 5},
		"carol": {5, 5},
	}
	perSection := FinalPerSection(ratings, 2)
	assert.Len(t, perSection, 2)
	assert.Equal(t, 5.0, perSection[0])
	assert.InDelta(t, 11.0/3.0, perSection[1], 1e-9)

	assert.Equal(t, []float64{0, 0}, FinalPerSection(map[string][]int{}, 2))
}

func TestOverallAverageIsMeanOfSectionMeans(t *testing.T) {
	t.Parallel()

	// Section means from uneven participation: one vote of 5 in the first
	// section, three votes of 2 in the second. Each section contributes
	// equally to the overall, so the result differs from the grand mean of
	// the four raw ratings.
	overall := OverallAverage([]float64{5, 2})
	assert.Equal(t, 3.5, overall)

	grand := float64(5+2+2+2) / 4
	assert.NotEqual(t, grand, overall)
}

func TestOverallAverageEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, OverallAverage(nil))
}
