package repository

import (
	"context"

	"github.com/inkshelf/inkshelf/internal/domain"
)

// BookFilter defines filter criteria for listing books.
type BookFilter struct {
	Genre     *string
	Author    *string
	Search    *string
	MinRating *float64
	Page      int
	Limit     int
}

// BookRepository defines the interface for book persistence operations.
type BookRepository interface {
	// Create inserts a new book into the store.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// GetBySlug retrieves a book by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Book, error)

	// List returns books matching the given filter along with the total count.
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)

	// Update modifies a book's catalog fields.
	Update(ctx context.Context, book *domain.Book) error

	// UpdateRating atomically writes the denormalized rating aggregate.
	// It returns domain-level not-found when the book no longer exists.
	UpdateRating(ctx context.Context, bookID string, summary domain.RatingSummary) error

	// Delete removes a book from the store by its identifier.
	Delete(ctx context.Context, id string) error
}

// ReviewFeed is a capped cache of recently approved reviews backing the
// recent-activity endpoint.
type ReviewFeed interface {
	// Push prepends a freshly approved review to the feed.
	Push(ctx context.Context, review *domain.Review) error

	// Recent returns up to limit reviews, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Review, error)

	// Remove drops a review from the feed once it is no longer approved.
	Remove(ctx context.Context, reviewID string) error
}

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	BookID *string
	UserID *string
	Status *domain.ReviewStatus
	Page   int
	Limit  int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. It returns a duplicate-review error when
	// the (book, user) pair already has one.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the given filter along with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// Update persists the review's current fields, guarded by its version.
	// The review's Version must hold the value read before mutation; on
	// success the stored and in-memory versions are incremented. A stale
	// version yields a version-conflict error.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review by its identifier.
	Delete(ctx context.Context, id string) error

	// ListApprovedRatings returns the rating values of all approved reviews
	// for a book. Used to recompute the book's aggregate from scratch.
	ListApprovedRatings(ctx context.Context, bookID string) ([]int, error)

	// AddLike records that a user likes a review. Reports whether a row was
	// actually inserted (false when the like already existed).
	AddLike(ctx context.Context, reviewID, userID string) (bool, error)

	// RemoveLike deletes a user's like on a review. Reports whether a row
	// was actually removed.
	RemoveLike(ctx context.Context, reviewID, userID string) (bool, error)

	// HasLike reports whether the user currently likes the review.
	HasLike(ctx context.Context, reviewID, userID string) (bool, error)

	// CountLikes returns the number of likes on a review.
	CountLikes(ctx context.Context, reviewID string) (int, error)
}
