package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/repository"
	apperrors "github.com/inkshelf/inkshelf/pkg/errors"
	"github.com/inkshelf/inkshelf/pkg/slug"
)

// CreateBookInput holds the parameters for adding a book to the catalog.
type CreateBookInput struct {
	Title         string
	Author        string
	Description   string
	Genre         string
	PublishedYear int
	CoverImageURL string
}

// UpdateBookInput holds the parameters for a partial book update.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Description   *string
	Genre         *string
	PublishedYear *int
	CoverImageURL *string
}

// BookService implements the business logic for catalog operations.
type BookService struct {
	repo    repository.BookRepository
	ratings Recomputer
	logger  *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(repo repository.BookRepository, ratings Recomputer, logger *slog.Logger) *BookService {
	return &BookService{
		repo:    repo,
		ratings: ratings,
		logger:  logger,
	}
}

// CreateBook adds a book to the catalog with a zero rating aggregate.
func (s *BookService) CreateBook(ctx context.Context, input *CreateBookInput) (*domain.Book, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Author == "" {
		return nil, apperrors.InvalidInput("author is required")
	}

	zero := domain.AggregateRatings(nil)

	now := time.Now().UTC()
	book := &domain.Book{
		ID:                  uuid.New().String(),
		Title:               input.Title,
		Author:              input.Author,
		Slug:                slug.Generate(input.Title),
		Description:         input.Description,
		Genre:               input.Genre,
		PublishedYear:       input.PublishedYear,
		CoverImageURL:       input.CoverImageURL,
		AverageRating:       zero.AverageRating,
		RatingsCount:        zero.RatingsCount,
		RatingsDistribution: zero.RatingsDistribution,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.InfoContext(ctx, "book created",
		slog.String("book_id", book.ID),
		slog.String("slug", book.Slug),
	)

	return book, nil
}

// GetBook retrieves a book by its ID.
func (s *BookService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book by id: %w", err)
	}
	return book, nil
}

// GetBookBySlug retrieves a book by its slug.
func (s *BookService) GetBookBySlug(ctx context.Context, bookSlug string) (*domain.Book, error) {
	book, err := s.repo.GetBySlug(ctx, bookSlug)
	if err != nil {
		return nil, fmt.Errorf("get book by slug: %w", err)
	}
	return book, nil
}

// ListBooks returns a filtered, paginated slice of the catalog.
func (s *BookService) ListBooks(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	return books, total, nil
}

// UpdateBook applies partial updates to a book's catalog fields. The rating
// aggregate is never writable through this path.
func (s *BookService) UpdateBook(ctx context.Context, id string, input *UpdateBookInput) (*domain.Book, error) {
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book for update: %w", err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		book.Title = *input.Title
		book.Slug = slug.Generate(*input.Title)
	}

	if input.Author != nil {
		if *input.Author == "" {
			return nil, apperrors.InvalidInput("author must not be empty")
		}
		book.Author = *input.Author
	}

	if input.Description != nil {
		book.Description = *input.Description
	}

	if input.Genre != nil {
		book.Genre = *input.Genre
	}

	if input.PublishedYear != nil {
		book.PublishedYear = *input.PublishedYear
	}

	if input.CoverImageURL != nil {
		book.CoverImageURL = *input.CoverImageURL
	}

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.InfoContext(ctx, "book updated",
		slog.String("book_id", book.ID),
		slog.String("slug", book.Slug),
	)

	return book, nil
}

// DeleteBook removes a book and, via cascade, its reviews and likes.
func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("get book for delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.InfoContext(ctx, "book deleted",
		slog.String("book_id", id),
	)

	return nil
}

// RepairRating forces a full aggregate recomputation for a book. Admin
// tooling uses this to converge an aggregate after missed trailing updates.
func (s *BookService) RepairRating(ctx context.Context, id string) (domain.RatingSummary, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("get book for rating repair: %w", err)
	}

	summary, err := s.ratings.Recompute(ctx, id)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("recompute rating: %w", err)
	}

	return summary, nil
}
