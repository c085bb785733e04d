package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/event"
	"github.com/inkshelf/inkshelf/internal/repository"
	apperrors "github.com/inkshelf/inkshelf/pkg/errors"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	BookID  string
	UserID  string
	Role    string
	Rating  int
	Title   string
	Comment string
}

// UpdateReviewInput holds the parameters for a partial review update. Nil
// fields are left unchanged. Status and RejectionReason require a moderator.
type UpdateReviewInput struct {
	Rating          *int
	Title           *string
	Comment         *string
	Status          *string
	RejectionReason *string
}

// Like toggle outcomes.
const (
	LikeActionLiked   = "liked"
	LikeActionUnliked = "unliked"
)

// Content length bounds, counted in runes.
const (
	maxTitleLen   = 100
	maxCommentLen = 5000
)

// ToggleLikeResult reports the outcome of a like toggle.
type ToggleLikeResult struct {
	ReviewID   string `json:"review_id"`
	Action     string `json:"action"`
	LikesCount int    `json:"likes_count"`
}

// ReviewService implements the review lifecycle: submission, moderation,
// partial edits, deletion, and like toggling. Every mutation that can change
// which ratings count toward a book's aggregate triggers a trailing
// recomputation through the rating service.
type ReviewService struct {
	reviews  repository.ReviewRepository
	books    repository.BookRepository
	feed     repository.ReviewFeed
	ratings  Recomputer
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	books repository.BookRepository,
	feed repository.ReviewFeed,
	ratings Recomputer,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		books:    books,
		feed:     feed,
		ratings:  ratings,
		producer: producer,
		logger:   logger,
	}
}

// CreateReview submits a review for a book. Reviews from regular users start
// in pending moderation; reviews from moderators are approved on the spot and
// immediately count toward the book's aggregate. A user gets one review per
// book; a second submission fails with a duplicate error regardless of the
// first one's status.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.BookID == "" {
		return nil, apperrors.InvalidInput("book_id is required")
	}
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLen {
		return nil, apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	if input.Comment == "" {
		return nil, apperrors.InvalidInput("comment is required")
	}
	if utf8.RuneCountInString(input.Comment) > maxCommentLen {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", maxCommentLen))
	}

	// The book must exist before a review can reference it.
	if _, err := s.books.GetByID(ctx, input.BookID); err != nil {
		return nil, fmt.Errorf("get book for review: %w", err)
	}

	status := domain.StatusPending
	if domain.IsModerator(input.Role) {
		status = domain.StatusApproved
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		BookID:    input.BookID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Title:     input.Title,
		Comment:   input.Comment,
		Status:    status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if review.IsApproved() {
		s.recomputeRating(ctx, review.BookID)
		s.pushToFeed(ctx, review)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("user_id", review.UserID),
		slog.Int("rating", review.Rating),
		slog.String("status", string(review.Status)),
	)

	return review, nil
}

// GetReview retrieves a review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

// ListBookReviews returns a page of a book's reviews. Regular callers only
// ever see approved reviews; moderators may filter by any status.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID, role string, status *domain.ReviewStatus, page, limit int) ([]domain.Review, int, error) {
	if bookID == "" {
		return nil, 0, apperrors.InvalidInput("book_id is required")
	}

	effective := domain.StatusApproved
	if status != nil && *status != domain.StatusApproved {
		if !domain.IsModerator(role) {
			return nil, 0, apperrors.Forbidden("only moderators may list unapproved reviews")
		}
		if !domain.IsValidReviewStatus(string(*status)) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q", *status))
		}
		effective = *status
	}

	filter := repository.ReviewFilter{
		BookID: &bookID,
		Status: &effective,
		Page:   page,
		Limit:  limit,
	}

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list book reviews: %w", err)
	}

	return reviews, total, nil
}

// ListUserReviews returns a page of reviews written by a user. Users see all
// of their own reviews; everyone else sees only the approved ones unless the
// caller is a moderator.
func (s *ReviewService) ListUserReviews(ctx context.Context, targetUserID, callerID, role string, page, limit int) ([]domain.Review, int, error) {
	if targetUserID == "" {
		return nil, 0, apperrors.InvalidInput("user_id is required")
	}

	filter := repository.ReviewFilter{
		UserID: &targetUserID,
		Page:   page,
		Limit:  limit,
	}

	if callerID != targetUserID && !domain.IsModerator(role) {
		approved := domain.StatusApproved
		filter.Status = &approved
	}

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list user reviews: %w", err)
	}

	return reviews, total, nil
}

// ListPendingReviews returns the moderation queue, oldest submissions last.
// Moderator only.
func (s *ReviewService) ListPendingReviews(ctx context.Context, role string, page, limit int) ([]domain.Review, int, error) {
	if !domain.IsModerator(role) {
		return nil, 0, apperrors.Forbidden("only moderators may view the moderation queue")
	}

	pending := domain.StatusPending
	filter := repository.ReviewFilter{
		Status: &pending,
		Page:   page,
		Limit:  limit,
	}

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list pending reviews: %w", err)
	}

	return reviews, total, nil
}

// UpdateReview applies a partial update to a review. The author may edit
// rating, title, and comment; status transitions and rejection reasons are
// moderator only. The book's aggregate is recomputed whenever the review was
// or becomes approved, since only those transitions can change which ratings
// count. A concurrent edit surfaces as a version conflict; callers re-read
// and retry.
func (s *ReviewService) UpdateReview(ctx context.Context, id string, callerID, role string, input *UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	isModerator := domain.IsModerator(role)
	isAuthor := review.UserID == callerID

	if !isAuthor && !isModerator {
		return nil, apperrors.Forbidden("you may only edit your own reviews")
	}

	if (input.Status != nil || input.RejectionReason != nil) && !isModerator {
		return nil, apperrors.Forbidden("only moderators may change review status")
	}

	oldStatus := review.Status
	contentChanged := false

	if input.Rating != nil {
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperrors.InvalidInput("rating must be between 1 and 5")
		}
		if *input.Rating != review.Rating {
			contentChanged = true
		}
		review.Rating = *input.Rating
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		if utf8.RuneCountInString(*input.Title) > maxTitleLen {
			return nil, apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", maxTitleLen))
		}
		if *input.Title != review.Title {
			contentChanged = true
		}
		review.Title = *input.Title
	}

	if input.Comment != nil {
		if *input.Comment == "" {
			return nil, apperrors.InvalidInput("comment must not be empty")
		}
		if utf8.RuneCountInString(*input.Comment) > maxCommentLen {
			return nil, apperrors.InvalidInput(fmt.Sprintf("comment must be at most %d characters", maxCommentLen))
		}
		if *input.Comment != review.Comment {
			contentChanged = true
		}
		review.Comment = *input.Comment
	}

	if contentChanged {
		review.Edited = true
	}

	if input.Status != nil {
		if !domain.IsValidReviewStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: pending, approved, rejected", *input.Status))
		}
		review.Status = domain.ReviewStatus(*input.Status)

		// The rejection reason only makes sense on rejected reviews.
		if review.Status == domain.StatusRejected {
			if input.RejectionReason != nil {
				review.RejectionReason = *input.RejectionReason
			}
		} else {
			review.RejectionReason = ""
		}
	} else if input.RejectionReason != nil {
		if review.Status != domain.StatusRejected {
			return nil, apperrors.InvalidInput("rejection_reason requires a rejected review")
		}
		review.RejectionReason = *input.RejectionReason
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	// A pending or rejected review never contributed to the aggregate, so an
	// edit that touches neither side of approval leaves it alone.
	if oldStatus == domain.StatusApproved || review.Status == domain.StatusApproved {
		s.recomputeRating(ctx, review.BookID)
	}

	switch {
	case oldStatus != domain.StatusApproved && review.Status == domain.StatusApproved:
		s.pushToFeed(ctx, review)
	case oldStatus == domain.StatusApproved && review.Status != domain.StatusApproved:
		s.removeFromFeed(ctx, review.ID)
	case review.Status == domain.StatusApproved && contentChanged:
		// An in-place edit leaves a stale snapshot in the feed.
		s.removeFromFeed(ctx, review.ID)
		s.pushToFeed(ctx, review)
	}

	if oldStatus != review.Status {
		if err := s.producer.PublishReviewModerated(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	} else if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("book_id", review.BookID),
		slog.String("old_status", string(oldStatus)),
		slog.String("status", string(review.Status)),
	)

	return review, nil
}

// DeleteReview removes a review. Authors may delete their own; moderators may
// delete any. The book's aggregate is recomputed only when the deleted review
// was approved, and the book ID is captured before deletion so the trigger
// survives the row being gone.
func (s *ReviewService) DeleteReview(ctx context.Context, id string, callerID, role string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}

	if review.UserID != callerID && !domain.IsModerator(role) {
		return apperrors.Forbidden("you may only delete your own reviews")
	}

	bookID := review.BookID
	wasApproved := review.IsApproved()

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if wasApproved {
		s.recomputeRating(ctx, bookID)
		s.removeFromFeed(ctx, id)
	}

	if err := s.producer.PublishReviewDeleted(ctx, id, bookID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("book_id", bookID),
		slog.Bool("was_approved", wasApproved),
	)

	return nil
}

// ToggleLike flips the caller's like on an approved review. Liking your own
// review is rejected, as is liking anything not currently approved. The
// toggle never touches the book's rating aggregate.
func (s *ReviewService) ToggleLike(ctx context.Context, reviewID, userID string) (*ToggleLikeResult, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for like: %w", err)
	}

	if review.UserID == userID {
		return nil, apperrors.SelfLike()
	}

	if !review.IsApproved() {
		return nil, apperrors.InvalidState("only approved reviews can be liked")
	}

	liked, err := s.reviews.HasLike(ctx, reviewID, userID)
	if err != nil {
		return nil, fmt.Errorf("check like: %w", err)
	}

	action := LikeActionLiked
	if liked {
		if _, err := s.reviews.RemoveLike(ctx, reviewID, userID); err != nil {
			return nil, fmt.Errorf("remove like: %w", err)
		}
		action = LikeActionUnliked
	} else {
		if _, err := s.reviews.AddLike(ctx, reviewID, userID); err != nil {
			return nil, fmt.Errorf("add like: %w", err)
		}
	}

	count, err := s.reviews.CountLikes(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	s.logger.InfoContext(ctx, "review like toggled",
		slog.String("review_id", reviewID),
		slog.String("user_id", userID),
		slog.String("action", action),
		slog.Int("likes_count", count),
	)

	return &ToggleLikeResult{
		ReviewID:   reviewID,
		Action:     action,
		LikesCount: count,
	}, nil
}

// RecentReviews returns the most recently approved reviews, served from the
// Redis feed with a Postgres fallback when the cache is cold or unavailable.
func (s *ReviewService) RecentReviews(ctx context.Context, limit int) ([]domain.Review, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	reviews, err := s.feed.Recent(ctx, limit)
	if err != nil {
		s.logger.WarnContext(ctx, "recent feed unavailable, falling back to database",
			slog.String("error", err.Error()),
		)
	}
	if err == nil && len(reviews) > 0 {
		return reviews, nil
	}

	approved := domain.StatusApproved
	reviews, _, err = s.reviews.List(ctx, repository.ReviewFilter{
		Status: &approved,
		Page:   1,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent reviews: %w", err)
	}

	return reviews, nil
}

// recomputeRating triggers a trailing aggregate recomputation. The mutation
// that triggered it has already committed, so a failure here is logged and
// swallowed; the next mutation or an admin repair converges the aggregate.
func (s *ReviewService) recomputeRating(ctx context.Context, bookID string) {
	if _, err := s.ratings.Recompute(ctx, bookID); err != nil {
		s.logger.WarnContext(ctx, "rating aggregate recompute failed",
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ReviewService) pushToFeed(ctx context.Context, review *domain.Review) {
	if err := s.feed.Push(ctx, review); err != nil {
		s.logger.WarnContext(ctx, "failed to push review to recent feed",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ReviewService) removeFromFeed(ctx context.Context, reviewID string) {
	if err := s.feed.Remove(ctx, reviewID); err != nil {
		s.logger.WarnContext(ctx, "failed to remove review from recent feed",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}
}
