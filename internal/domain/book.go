package domain

import "time"

// Book is a catalog entry carrying its denormalized rating aggregate. The
// aggregate triple (AverageRating, RatingsCount, RatingsDistribution) is
// recomputed from approved reviews and never updated incrementally.
type Book struct {
	ID                  string             `json:"id"`
	Title               string             `json:"title"`
	Author              string             `json:"author"`
	Slug                string             `json:"slug"`
	Description         string             `json:"description,omitempty"`
	Genre               string             `json:"genre,omitempty"`
	PublishedYear       int                `json:"published_year,omitempty"`
	CoverImageURL       string             `json:"cover_image_url,omitempty"`
	AverageRating       float64            `json:"average_rating"`
	RatingsCount        int                `json:"ratings_count"`
	RatingsDistribution RatingDistribution `json:"ratings_distribution"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
