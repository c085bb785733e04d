package domain

import "math"

// StarCount is one bucket of a rating distribution.
type StarCount struct {
	Star  int `json:"star"`
	Count int `json:"count"`
}

// RatingDistribution holds the five star buckets ordered descending from five
// stars to one, always fully populated. It marshals as a JSON array so the
// order survives serialization.
type RatingDistribution []StarCount

// ZeroDistribution returns a zero-filled distribution, five stars first.
func ZeroDistribution() RatingDistribution {
	return RatingDistribution{
		{Star: 5}, {Star: 4}, {Star: 3}, {Star: 2}, {Star: 1},
	}
}

// CountFor returns the count for the given star value, 0 if absent.
func (d RatingDistribution) CountFor(star int) int {
	for _, b := range d {
		if b.Star == star {
			return b.Count
		}
	}
	return 0
}

// RatingSummary is the denormalized rating aggregate stored on a book.
type RatingSummary struct {
	AverageRating       float64            `json:"average_rating"`
	RatingsCount        int                `json:"ratings_count"`
	RatingsDistribution RatingDistribution `json:"ratings_distribution"`
}

// AggregateRatings computes a book's rating summary from the full set of its
// approved review ratings. The average is rounded half-up to one decimal
// place. The distribution always carries all five star buckets ordered 5 down
// to 1, zero-filled. An empty input yields the zero aggregate: average 0,
// count 0, all buckets 0.
//
// The function is pure and deterministic, so recomputing from the same set of
// ratings is idempotent regardless of how many mutations triggered it.
func AggregateRatings(ratings []int) RatingSummary {
	var buckets [6]int

	sum := 0
	count := 0
	for _, r := range ratings {
		if r < 1 || r > 5 {
			continue
		}
		buckets[r]++
		sum += r
		count++
	}

	dist := ZeroDistribution()
	for i := range dist {
		dist[i].Count = buckets[dist[i].Star]
	}

	avg := 0.0
	if count > 0 {
		avg = roundHalfUp(float64(sum)/float64(count), 1)
	}

	return RatingSummary{
		AverageRating:       avg,
		RatingsCount:        count,
		RatingsDistribution: dist,
	}
}

// roundHalfUp rounds v to the given number of decimal places, with ties
// rounding away from zero (3.25 at one place becomes 3.3).
func roundHalfUp(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Floor(v*shift+0.5) / shift
}
