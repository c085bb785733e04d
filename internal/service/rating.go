package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/event"
	"github.com/inkshelf/inkshelf/internal/repository"
	apperrors "github.com/inkshelf/inkshelf/pkg/errors"
)

// Recomputer recomputes a book's rating aggregate from its approved reviews.
type Recomputer interface {
	Recompute(ctx context.Context, bookID string) (domain.RatingSummary, error)
}

// RatingService owns the denormalized rating aggregate on books. The
// aggregate is always rebuilt from the full set of approved review ratings,
// never adjusted incrementally, so any number of recomputations converge on
// the same value.
type RatingService struct {
	books    repository.BookRepository
	reviews  repository.ReviewRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(books repository.BookRepository, reviews repository.ReviewRepository, producer *event.Producer, logger *slog.Logger) *RatingService {
	return &RatingService{
		books:    books,
		reviews:  reviews,
		producer: producer,
		logger:   logger,
	}
}

// Recompute reads all approved review ratings for the book, aggregates them,
// and writes the triple back in one atomic update. A book deleted between the
// triggering mutation and the write is treated as a no-op rather than an
// error. Concurrent recomputations may interleave; each write is internally
// consistent and the last one wins.
func (s *RatingService) Recompute(ctx context.Context, bookID string) (domain.RatingSummary, error) {
	ratings, err := s.reviews.ListApprovedRatings(ctx, bookID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("list approved ratings: %w", err)
	}

	summary := domain.AggregateRatings(ratings)

	if err := s.books.UpdateRating(ctx, bookID, summary); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.DebugContext(ctx, "skipping rating write for deleted book",
				slog.String("book_id", bookID),
			)
			return summary, nil
		}
		return domain.RatingSummary{}, fmt.Errorf("write rating aggregate: %w", err)
	}

	if err := s.producer.PublishRatingUpdated(ctx, bookID, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish book.rating_updated event",
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "rating aggregate recomputed",
		slog.String("book_id", bookID),
		slog.Float64("average_rating", summary.AverageRating),
		slog.Int("ratings_count", summary.RatingsCount),
	)

	return summary, nil
}
