package lecture

import "math"

const (
	// DefaultRating fills every slot of a student's rating array on join,
	// until the student submits a rating for that section.
	DefaultRating = 1

	// RatingThreshold is the cutoff for a student's personal low-rating
	// summary: sections rated strictly below it are highlighted.
	RatingThreshold = 3
)

// RoundRating rounds to one decimal place. Applied only to values that cross
// the wire or land in storage; intermediate math stays unrounded.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// SectionAverage returns the mean of every student's rating at the given
// index. No students is a normal state and yields 0, not an error.
func SectionAverage(ratings map[string][]int, index int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r[index]
	}
	return float64(sum) / float64(len(ratings))
}

// Rated pairs a section with a rating, keeping its index in the sequence.
type Rated struct {
	Index   int
	Section Section
	Rating  float64
}

// BelowThreshold returns one student's sections rated strictly below the
// threshold, in sequence order.
func BelowThreshold(sections []Section, ratings []int, threshold int) []Rated {
	var low []Rated
	for i, r := range ratings {
		if r < threshold {
			low = append(low, Rated{Index: i, Section: sections[i], Rating: float64(r)})
		}
	}
	return low
}

// FinalPerSection returns the unrounded mean across all students for each of
// the n sections. With no students every mean is 0.
func FinalPerSection(ratings map[string][]int, n int) []float64 {
	averages := make([]float64, n)
	for i := range averages {
		averages[i] = SectionAverage(ratings, i)
	}
	return averages
}

// OverallAverage is the mean of the per-section means, not the grand mean of
// raw ratings. Each section contributes equally regardless of how many
// students had rated it at that moment.
func OverallAverage(perSection []float64) float64 {
	if len(perSection) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range perSection {
		sum += v
	}
	return sum / float64(len(perSection))
}
