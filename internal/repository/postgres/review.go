package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/repository"
	"github.com/inkshelf/inkshelf/pkg/database"
	apperrors "github.com/inkshelf/inkshelf/pkg/errors"
)

const reviewColumns = `id, book_id, user_id, rating, title, comment, status, rejection_reason,
	       edited, version, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. The unique index on (book_id, user_id) closes
// the race between two concurrent submissions by the same user.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, book_id, user_id, rating, title, comment, status, rejection_reason, edited, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		rv.ID,
		rv.BookID,
		rv.UserID,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.Status,
		rv.RejectionReason,
		rv.Edited,
		rv.Version,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.DuplicateReview(rv.BookID)
		}
		// The existence check in the service races with a concurrent book
		// deletion; the FK violation is the authoritative "book is gone".
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("book", rv.BookID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID, including its like count.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := fmt.Sprintf(`
		SELECT %s,
		       (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = reviews.id) AS likes_count
		FROM reviews
		WHERE id = $1`, reviewColumns)

	var rv domain.Review

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.BookID,
		&rv.UserID,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.Status,
		&rv.RejectionReason,
		&rv.Edited,
		&rv.Version,
		&rv.CreatedAt,
		&rv.UpdatedAt,
		&rv.LikesCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rv, nil
}

// List returns reviews matching the given filter with the total count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.BookID != nil {
		conditions = append(conditions, fmt.Sprintf("book_id = $%d", argIndex))
		args = append(args, *filter.BookID)
		argIndex++
	}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       (SELECT COUNT(*) FROM review_likes l WHERE l.review_id = reviews.id) AS likes_count,
		       count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		reviewColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.BookID,
			&rv.UserID,
			&rv.Rating,
			&rv.Title,
			&rv.Comment,
			&rv.Status,
			&rv.RejectionReason,
			&rv.Edited,
			&rv.Version,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&rv.LikesCount,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// Update persists the review's fields guarded by optimistic concurrency. The
// WHERE clause matches the version read before mutation; zero rows affected
// means a concurrent writer got there first (or the review is gone).
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	rv.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE reviews
		SET rating = $1, title = $2, comment = $3, status = $4, rejection_reason = $5,
		    edited = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9`

	ct, err := r.pool.Exec(ctx, query,
		rv.Rating,
		rv.Title,
		rv.Comment,
		rv.Status,
		rv.RejectionReason,
		rv.Edited,
		rv.UpdatedAt,
		rv.ID,
		rv.Version,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Distinguish a deleted review from a stale version.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`, rv.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check review existence: %w", err)
		}
		if !exists {
			return apperrors.NotFound("review", rv.ID)
		}
		return apperrors.VersionConflict("review", rv.ID)
	}

	rv.Version++
	return nil
}

// Delete removes a review by its ID. Likes go with it via ON DELETE CASCADE.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// ListApprovedRatings returns the rating values of all approved reviews for a
// book. The full set is always read so the caller can recompute the aggregate
// from scratch.
func (r *ReviewRepository) ListApprovedRatings(ctx context.Context, bookID string) ([]int, error) {
	query := `SELECT rating FROM reviews WHERE book_id = $1 AND status = $2`

	rows, err := r.pool.Query(ctx, query, bookID, domain.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}

	return ratings, nil
}

// AddLike records a like, ignoring duplicates. The primary key on
// (review_id, user_id) makes repeated likes a no-op.
func (r *ReviewRepository) AddLike(ctx context.Context, reviewID, userID string) (bool, error) {
	query := `
		INSERT INTO review_likes (review_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (review_id, user_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query, reviewID, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// RemoveLike deletes a user's like on a review.
func (r *ReviewRepository) RemoveLike(ctx context.Context, reviewID, userID string) (bool, error) {
	query := `DELETE FROM review_likes WHERE review_id = $1 AND user_id = $2`

	ct, err := r.pool.Exec(ctx, query, reviewID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return ct.RowsAffected() == 1, nil
}

// HasLike reports whether the user currently likes the review.
func (r *ReviewRepository) HasLike(ctx context.Context, reviewID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM review_likes WHERE review_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, reviewID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check like existence: %w", err)
	}

	return exists, nil
}

// CountLikes returns the number of likes on a review.
func (r *ReviewRepository) CountLikes(ctx context.Context, reviewID string) (int, error) {
	query := `SELECT COUNT(*) FROM review_likes WHERE review_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, reviewID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}
