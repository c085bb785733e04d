package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/repository"
	apperrors "github.com/inkshelf/inkshelf/pkg/errors"
)

type reviewServiceMocks struct {
	reviews *mockReviewRepository
	books   *mockBookRepository
	feed    *mockFeed
	ratings *mockRecomputer
}

func newTestReviewService() (*ReviewService, reviewServiceMocks) {
	m := reviewServiceMocks{
		reviews: new(mockReviewRepository),
		books:   new(mockBookRepository),
		feed:    new(mockFeed),
		ratings: new(mockRecomputer),
	}
	svc := NewReviewService(m.reviews, m.books, m.feed, m.ratings, newTestProducer(), newTestLogger())
	return svc, m
}

func testBook() *domain.Book {
	now := time.Now().UTC()
	return &domain.Book{
		ID:                  "book-1",
		Title:               "The Great Gatsby",
		Author:              "F. Scott Fitzgerald",
		Slug:                "the-great-gatsby",
		RatingsDistribution: domain.ZeroDistribution(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func testReview(status domain.ReviewStatus) *domain.Review {
	now := time.Now().UTC()
	return &domain.Review{
		ID:        "review-1",
		BookID:    "book-1",
		UserID:    "user-1",
		Rating:    4,
		Title:     "Solid read",
		Comment:   "Enjoyed it a lot.",
		Status:    status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// --- CreateReview ---

func TestCreateReview_RegularUserStartsPending(t *testing.T) {
	svc, m := newTestReviewService()

	m.books.On("GetByID", mock.Anything, "book-1").Return(testBook(), nil)
	m.reviews.On("Create", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.Status == domain.StatusPending && rv.Version == 1
	})).Return(nil)

	review, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "book-1",
		UserID:  "user-1",
		Role:    domain.RoleUser,
		Rating:  4,
		Title:   "Solid read",
		Comment: "Enjoyed it a lot.",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, review.Status)
	assert.NotEmpty(t, review.ID)
	m.reviews.AssertExpectations(t)
	// A pending review never touches the aggregate or the feed.
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
	m.feed.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestCreateReview_ModeratorAutoApprovedAndRecomputed(t *testing.T) {
	svc, m := newTestReviewService()

	m.books.On("GetByID", mock.Anything, "book-1").Return(testBook(), nil)
	m.reviews.On("Create", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.Status == domain.StatusApproved
	})).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings([]int{5}), nil)
	m.feed.On("Push", mock.Anything, mock.Anything).Return(nil)

	review, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "book-1",
		UserID:  "mod-1",
		Role:    domain.RoleModerator,
		Rating:  5,
		Title:   "A favorite",
		Comment: "Excellent.",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, review.Status)
	m.ratings.AssertExpectations(t)
	m.feed.AssertExpectations(t)
}

func TestCreateReview_InvalidRating(t *testing.T) {
	svc, _ := newTestReviewService()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
			BookID:  "book-1",
			UserID:  "user-1",
			Rating:  rating,
			Title:   "nope",
			Comment: "nope",
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestCreateReview_TitleRequiredAndBounded(t *testing.T) {
	svc, m := newTestReviewService()

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "book-1",
		UserID:  "user-1",
		Rating:  4,
		Comment: "no headline",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "book-1",
		UserID:  "user-1",
		Rating:  4,
		Title:   strings.Repeat("x", 101),
		Comment: "headline too long",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Bounds are checked before any storage access.
	m.books.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	m.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_CommentBounded(t *testing.T) {
	svc, m := newTestReviewService()

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "book-1",
		UserID:  "user-1",
		Rating:  4,
		Title:   "Fine",
		Comment: strings.Repeat("x", 5001),
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	m.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReview_BookNotFound(t *testing.T) {
	svc, m := newTestReviewService()

	m.books.On("GetByID", mock.Anything, "missing-book").Return(nil, apperrors.ErrNotFound)

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "missing-book",
		UserID:  "user-1",
		Rating:  3,
		Title:   "hmm",
		Comment: "hmm",
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateReview_DuplicatePerBookAndUser(t *testing.T) {
	svc, m := newTestReviewService()

	m.books.On("GetByID", mock.Anything, "book-1").Return(testBook(), nil)
	m.reviews.On("Create", mock.Anything, mock.Anything).Return(apperrors.DuplicateReview("book-1"))

	_, err := svc.CreateReview(context.Background(), &CreateReviewInput{
		BookID:  "book-1",
		UserID:  "user-1",
		Rating:  4,
		Title:   "again",
		Comment: "again",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

// --- UpdateReview ---

func TestUpdateReview_AuthorEditsApprovedRating_TriggersRecompute(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Update", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.Rating == 2 && rv.Status == domain.StatusApproved && rv.Edited
	})).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings([]int{2}), nil)
	m.feed.On("Remove", mock.Anything, "review-1").Return(nil)
	m.feed.On("Push", mock.Anything, mock.Anything).Return(nil)

	review, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Rating: intPtr(2),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, review.Rating)
	m.ratings.AssertExpectations(t)
}

func TestUpdateReview_ApprovedContentEditRefreshesFeed(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings([]int{4}), nil)
	m.feed.On("Remove", mock.Anything, "review-1").Return(nil)
	m.feed.On("Push", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.ID == "review-1" && rv.Comment == "Re-read it, even better."
	})).Return(nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Comment: strPtr("Re-read it, even better."),
	})

	require.NoError(t, err)
	m.feed.AssertExpectations(t)
}

func TestUpdateReview_ApprovedNoChangeLeavesFeedAlone(t *testing.T) {
	svc, m := newTestReviewService()

	current := testReview(domain.StatusApproved)
	m.reviews.On("GetByID", mock.Anything, "review-1").Return(current, nil)
	m.reviews.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings([]int{4}), nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Comment: strPtr(current.Comment),
	})

	require.NoError(t, err)
	m.feed.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	m.feed.AssertNotCalled(t, "Push", mock.Anything, mock.Anything)
}

func TestUpdateReview_AuthorEditsPendingRating_NoRecompute(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusPending), nil)
	m.reviews.On("Update", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Rating: intPtr(5),
	})

	require.NoError(t, err)
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestUpdateReview_TitleAndCommentBounded(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusPending), nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Title: strPtr(strings.Repeat("x", 101)),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Title: strPtr(""),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Comment: strPtr(strings.Repeat("x", 5001)),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	m.reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_StrangerForbidden(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "other-user", domain.RoleUser, &UpdateReviewInput{
		Comment: strPtr("hijacked"),
	})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdateReview_UserCannotChangeStatus(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusPending), nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Status: strPtr("approved"),
	})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	m.reviews.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateReview_ModeratorApprovesPending(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusPending), nil)
	m.reviews.On("Update", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.Status == domain.StatusApproved && rv.RejectionReason == "" && !rv.Edited
	})).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings([]int{4}), nil)
	m.feed.On("Push", mock.Anything, mock.Anything).Return(nil)

	review, err := svc.UpdateReview(context.Background(), "review-1", "mod-1", domain.RoleModerator, &UpdateReviewInput{
		Status: strPtr("approved"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, review.Status)
	m.ratings.AssertExpectations(t)
	m.feed.AssertExpectations(t)
}

func TestUpdateReview_ModeratorRejectsApproved(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Update", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.Status == domain.StatusRejected && rv.RejectionReason == "spam"
	})).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings(nil), nil)
	m.feed.On("Remove", mock.Anything, "review-1").Return(nil)

	review, err := svc.UpdateReview(context.Background(), "review-1", "mod-1", domain.RoleModerator, &UpdateReviewInput{
		Status:          strPtr("rejected"),
		RejectionReason: strPtr("spam"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, review.Status)
	assert.Equal(t, "spam", review.RejectionReason)
	m.ratings.AssertExpectations(t)
	m.feed.AssertExpectations(t)
}

func TestUpdateReview_RejectedToPending_ClearsReason(t *testing.T) {
	svc, m := newTestReviewService()

	rejected := testReview(domain.StatusRejected)
	rejected.RejectionReason = "too short"

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(rejected, nil)
	m.reviews.On("Update", mock.Anything, mock.MatchedBy(func(rv *domain.Review) bool {
		return rv.Status == domain.StatusPending && rv.RejectionReason == ""
	})).Return(nil)

	review, err := svc.UpdateReview(context.Background(), "review-1", "mod-1", domain.RoleModerator, &UpdateReviewInput{
		Status: strPtr("pending"),
	})

	require.NoError(t, err)
	assert.Empty(t, review.RejectionReason)
	// Neither old nor new status is approved, so the aggregate is untouched.
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestUpdateReview_InvalidStatus(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusPending), nil)

	_, err := svc.UpdateReview(context.Background(), "review-1", "mod-1", domain.RoleModerator, &UpdateReviewInput{
		Status: strPtr("archived"),
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateReview_VersionConflictSurfaces(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Update", mock.Anything, mock.Anything).Return(apperrors.VersionConflict("review", "review-1"))

	_, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Rating: intPtr(1),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestUpdateReview_RecomputeFailureDoesNotFailUpdate(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.RatingSummary{}, assert.AnError)
	m.feed.On("Remove", mock.Anything, "review-1").Return(nil)
	m.feed.On("Push", mock.Anything, mock.Anything).Return(nil)

	review, err := svc.UpdateReview(context.Background(), "review-1", "user-1", domain.RoleUser, &UpdateReviewInput{
		Rating: intPtr(3),
	})

	// The mutation committed; the stale aggregate is a logged warning.
	require.NoError(t, err)
	assert.Equal(t, 3, review.Rating)
}

// --- DeleteReview ---

func TestDeleteReview_ApprovedTriggersRecompute(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Delete", mock.Anything, "review-1").Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings(nil), nil)
	m.feed.On("Remove", mock.Anything, "review-1").Return(nil)

	err := svc.DeleteReview(context.Background(), "review-1", "user-1", domain.RoleUser)

	require.NoError(t, err)
	m.ratings.AssertExpectations(t)
	m.feed.AssertExpectations(t)
}

func TestDeleteReview_PendingSkipsRecompute(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusPending), nil)
	m.reviews.On("Delete", mock.Anything, "review-1").Return(nil)

	err := svc.DeleteReview(context.Background(), "review-1", "user-1", domain.RoleUser)

	require.NoError(t, err)
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestDeleteReview_StrangerForbidden(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)

	err := svc.DeleteReview(context.Background(), "review-1", "other-user", domain.RoleUser)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	m.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteReview_ModeratorDeletesAny(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("Delete", mock.Anything, "review-1").Return(nil)
	m.ratings.On("Recompute", mock.Anything, "book-1").Return(domain.AggregateRatings(nil), nil)
	m.feed.On("Remove", mock.Anything, "review-1").Return(nil)

	err := svc.DeleteReview(context.Background(), "review-1", "mod-1", domain.RoleModerator)

	require.NoError(t, err)
}

func TestDeleteReview_NotFound(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "missing-id").Return(nil, apperrors.ErrNotFound)

	err := svc.DeleteReview(context.Background(), "missing-id", "user-1", domain.RoleUser)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- ToggleLike ---

func TestToggleLike_LikeApprovedReview(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("HasLike", mock.Anything, "review-1", "user-2").Return(false, nil)
	m.reviews.On("AddLike", mock.Anything, "review-1", "user-2").Return(true, nil)
	m.reviews.On("CountLikes", mock.Anything, "review-1").Return(1, nil)

	result, err := svc.ToggleLike(context.Background(), "review-1", "user-2")

	require.NoError(t, err)
	assert.Equal(t, LikeActionLiked, result.Action)
	assert.Equal(t, 1, result.LikesCount)
	// Likes never touch the rating aggregate.
	m.ratings.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestToggleLike_SecondToggleRemoves(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)
	m.reviews.On("HasLike", mock.Anything, "review-1", "user-2").Return(true, nil)
	m.reviews.On("RemoveLike", mock.Anything, "review-1", "user-2").Return(true, nil)
	m.reviews.On("CountLikes", mock.Anything, "review-1").Return(0, nil)

	result, err := svc.ToggleLike(context.Background(), "review-1", "user-2")

	require.NoError(t, err)
	assert.Equal(t, LikeActionUnliked, result.Action)
	assert.Equal(t, 0, result.LikesCount)
}

func TestToggleLike_OwnReviewRejected(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(domain.StatusApproved), nil)

	_, err := svc.ToggleLike(context.Background(), "review-1", "user-1")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SELF_LIKE", appErr.Code)
}

func TestToggleLike_UnapprovedRejected(t *testing.T) {
	svc, m := newTestReviewService()

	for _, status := range []domain.ReviewStatus{domain.StatusPending, domain.StatusRejected} {
		m.reviews.ExpectedCalls = nil
		m.reviews.On("GetByID", mock.Anything, "review-1").Return(testReview(status), nil)

		_, err := svc.ToggleLike(context.Background(), "review-1", "user-2")

		require.Error(t, err)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INVALID_STATE", appErr.Code)
	}
}

func TestToggleLike_ReviewNotFound(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("GetByID", mock.Anything, "missing-id").Return(nil, apperrors.ErrNotFound)

	_, err := svc.ToggleLike(context.Background(), "missing-id", "user-2")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- Listings ---

func TestListBookReviews_DefaultsToApproved(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status != nil && *f.Status == domain.StatusApproved && *f.BookID == "book-1"
	})).Return([]domain.Review{*testReview(domain.StatusApproved)}, 1, nil)

	reviews, total, err := svc.ListBookReviews(context.Background(), "book-1", domain.RoleUser, nil, 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, reviews, 1)
}

func TestListBookReviews_UserCannotSeePending(t *testing.T) {
	svc, _ := newTestReviewService()

	pending := domain.StatusPending
	_, _, err := svc.ListBookReviews(context.Background(), "book-1", domain.RoleUser, &pending, 1, 20)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestListBookReviews_ModeratorFiltersPending(t *testing.T) {
	svc, m := newTestReviewService()

	pending := domain.StatusPending
	m.reviews.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status != nil && *f.Status == domain.StatusPending
	})).Return([]domain.Review{}, 0, nil)

	_, _, err := svc.ListBookReviews(context.Background(), "book-1", domain.RoleModerator, &pending, 1, 20)

	require.NoError(t, err)
}

func TestListUserReviews_OwnerSeesAllStatuses(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status == nil && *f.UserID == "user-1"
	})).Return([]domain.Review{}, 0, nil)

	_, _, err := svc.ListUserReviews(context.Background(), "user-1", "user-1", domain.RoleUser, 1, 20)

	require.NoError(t, err)
	m.reviews.AssertExpectations(t)
}

func TestListUserReviews_StrangerSeesApprovedOnly(t *testing.T) {
	svc, m := newTestReviewService()

	m.reviews.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status != nil && *f.Status == domain.StatusApproved
	})).Return([]domain.Review{}, 0, nil)

	_, _, err := svc.ListUserReviews(context.Background(), "user-1", "user-2", domain.RoleUser, 1, 20)

	require.NoError(t, err)
	m.reviews.AssertExpectations(t)
}

func TestListPendingReviews_RequiresModerator(t *testing.T) {
	svc, _ := newTestReviewService()

	_, _, err := svc.ListPendingReviews(context.Background(), domain.RoleUser, 1, 20)

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

// --- RecentReviews ---

func TestRecentReviews_ServedFromFeed(t *testing.T) {
	svc, m := newTestReviewService()

	m.feed.On("Recent", mock.Anything, 10).Return([]domain.Review{*testReview(domain.StatusApproved)}, nil)

	reviews, err := svc.RecentReviews(context.Background(), 10)

	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	m.reviews.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestRecentReviews_ColdFeedFallsBackToDatabase(t *testing.T) {
	svc, m := newTestReviewService()

	m.feed.On("Recent", mock.Anything, 10).Return([]domain.Review{}, nil)
	m.reviews.On("List", mock.Anything, mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.Status != nil && *f.Status == domain.StatusApproved && f.Limit == 10
	})).Return([]domain.Review{*testReview(domain.StatusApproved)}, 1, nil)

	reviews, err := svc.RecentReviews(context.Background(), 10)

	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	m.reviews.AssertExpectations(t)
}

func TestRecentReviews_FeedErrorFallsBackToDatabase(t *testing.T) {
	svc, m := newTestReviewService()

	m.feed.On("Recent", mock.Anything, 10).Return(nil, assert.AnError)
	m.reviews.On("List", mock.Anything, mock.Anything).Return([]domain.Review{}, 0, nil)

	_, err := svc.RecentReviews(context.Background(), 10)

	require.NoError(t, err)
	m.reviews.AssertExpectations(t)
}
