package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkshelf/inkshelf/internal/domain"
	pkgkafka "github.com/inkshelf/inkshelf/pkg/kafka"
)

// Kafka topic constants for review and book domain events.
const (
	TopicReviewCreated     = "inkshelf.review.created"
	TopicReviewUpdated     = "inkshelf.review.updated"
	TopicReviewModerated   = "inkshelf.review.moderated"
	TopicReviewDeleted     = "inkshelf.review.deleted"
	TopicBookRatingUpdated = "inkshelf.book.rating_updated"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeBook   = "book"
)

// Source identifier for events originating from this service.
const SourceReviewService = "review-service"

// ReviewEventData is the payload for review lifecycle events.
type ReviewEventData struct {
	ID              string `json:"id"`
	BookID          string `json:"book_id"`
	UserID          string `json:"user_id"`
	Rating          int    `json:"rating"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
}

// RatingUpdatedData is the payload for a book.rating_updated event.
type RatingUpdatedData struct {
	BookID              string                    `json:"book_id"`
	AverageRating       float64                   `json:"average_rating"`
	RatingsCount        int                       `json:"ratings_count"`
	RatingsDistribution domain.RatingDistribution `json:"ratings_distribution"`
}

// Producer publishes review and book domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewCreated, review)
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewUpdated, review)
}

// PublishReviewModerated publishes a review.moderated event after a status
// transition.
func (p *Producer) PublishReviewModerated(ctx context.Context, review *domain.Review) error {
	return p.publishReview(ctx, TopicReviewModerated, review)
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, bookID string) error {
	data := ReviewDeletedData{ID: reviewID, BookID: bookID}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, reviewID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", reviewID),
		slog.String("book_id", bookID),
	)

	return nil
}

// PublishRatingUpdated publishes a book.rating_updated event carrying the
// freshly recomputed aggregate.
func (p *Producer) PublishRatingUpdated(ctx context.Context, bookID string, summary domain.RatingSummary) error {
	data := RatingUpdatedData{
		BookID:              bookID,
		AverageRating:       summary.AverageRating,
		RatingsCount:        summary.RatingsCount,
		RatingsDistribution: summary.RatingsDistribution,
	}

	event, err := pkgkafka.NewEvent(TopicBookRatingUpdated, bookID, AggregateTypeBook, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create book.rating_updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookRatingUpdated, event); err != nil {
		return fmt.Errorf("publish book.rating_updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published book.rating_updated event",
		slog.String("book_id", bookID),
		slog.Int("ratings_count", summary.RatingsCount),
	)

	return nil
}

func (p *Producer) publishReview(ctx context.Context, topic string, review *domain.Review) error {
	data := ReviewEventData{
		ID:              review.ID,
		BookID:          review.BookID,
		UserID:          review.UserID,
		Rating:          review.Rating,
		Status:          string(review.Status),
		RejectionReason: review.RejectionReason,
	}

	event, err := pkgkafka.NewEvent(topic, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published review event",
		slog.String("topic", topic),
		slog.String("review_id", review.ID),
		slog.String("status", string(review.Status)),
	)

	return nil
}
