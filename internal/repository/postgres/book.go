package postgres

import (
	"context"
	"encoding/json"
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

const bookColumns = `id, title, author, slug, description, genre, published_year, cover_image_url,
	       average_rating, ratings_count, ratings_distribution, created_at, updated_at`

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	pool database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(pool database.DBTX) *BookRepository {
	return &BookRepository{pool: pool}
}

// Create inserts a new book into the database.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	distJSON, err := json.Marshal(b.RatingsDistribution)
	if err != nil {
		return fmt.Errorf("marshal ratings distribution: %w", err)
	}

	query := `
		INSERT INTO books (id, title, author, slug, description, genre, published_year, cover_image_url,
		                   average_rating, ratings_count, ratings_distribution, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.pool.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Author,
		b.Slug,
		b.Description,
		b.Genre,
		b.PublishedYear,
		b.CoverImageURL,
		b.AverageRating,
		b.RatingsCount,
		distJSON,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "slug", b.Slug)
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)
	return r.scanBook(ctx, query, id)
}

// GetBySlug retrieves a book by its slug.
func (r *BookRepository) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE slug = $1`, bookColumns)
	return r.scanBook(ctx, query, slug)
}

// List returns books matching the given filter with the total count.
func (r *BookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Genre != nil {
		conditions = append(conditions, fmt.Sprintf("genre = $%d", argIndex))
		args = append(args, *filter.Genre)
		argIndex++
	}

	if filter.Author != nil {
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.Author+"%")
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("average_rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM books
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		bookColumns, whereClause, argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var (
		books      []domain.Book
		totalCount int
	)

	for rows.Next() {
		var (
			b        domain.Book
			distJSON []byte
		)

		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.Slug,
			&b.Description,
			&b.Genre,
			&b.PublishedYear,
			&b.CoverImageURL,
			&b.AverageRating,
			&b.RatingsCount,
			&distJSON,
			&b.CreatedAt,
			&b.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}

		if distJSON != nil {
			if err := json.Unmarshal(distJSON, &b.RatingsDistribution); err != nil {
				return nil, 0, fmt.Errorf("unmarshal ratings distribution: %w", err)
			}
		}

		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	if books == nil {
		books = []domain.Book{}
	}

	return books, totalCount, nil
}

// Update modifies a book's catalog fields in the database.
func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET title = $1, author = $2, slug = $3, description = $4, genre = $5,
		    published_year = $6, cover_image_url = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.pool.Exec(ctx, query,
		b.Title,
		b.Author,
		b.Slug,
		b.Description,
		b.Genre,
		b.PublishedYear,
		b.CoverImageURL,
		b.UpdatedAt,
		b.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("book", "slug", b.Slug)
		}
		return fmt.Errorf("update book: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", b.ID)
	}

	return nil
}

// UpdateRating atomically writes the denormalized rating aggregate for a book.
// The triple is written in a single UPDATE so readers never observe a
// partially applied aggregate.
func (r *BookRepository) UpdateRating(ctx context.Context, bookID string, summary domain.RatingSummary) error {
	distJSON, err := json.Marshal(summary.RatingsDistribution)
	if err != nil {
		return fmt.Errorf("marshal ratings distribution: %w", err)
	}

	query := `
		UPDATE books
		SET average_rating = $1, ratings_count = $2, ratings_distribution = $3, updated_at = $4
		WHERE id = $5`

	ct, err := r.pool.Exec(ctx, query,
		summary.AverageRating,
		summary.RatingsCount,
		distJSON,
		time.Now().UTC(),
		bookID,
	)
	if err != nil {
		return fmt.Errorf("update book rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", bookID)
	}

	return nil
}

// Delete removes a book from the database by its ID. Reviews and likes go
// with it via ON DELETE CASCADE.
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM books WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("book", id)
	}

	return nil
}

// scanBook is a helper that executes a query expected to return a single book row.
func (r *BookRepository) scanBook(ctx context.Context, query string, args ...any) (*domain.Book, error) {
	var (
		b        domain.Book
		distJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Slug,
		&b.Description,
		&b.Genre,
		&b.PublishedYear,
		&b.CoverImageURL,
		&b.AverageRating,
		&b.RatingsCount,
		&distJSON,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	if distJSON != nil {
		if err := json.Unmarshal(distJSON, &b.RatingsDistribution); err != nil {
			return nil, fmt.Errorf("unmarshal ratings distribution: %w", err)
		}
	}

	return &b, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}
