package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/event"
	"github.com/inkshelf/inkshelf/internal/repository"
	"github.com/inkshelf/inkshelf/internal/service"
	"github.com/inkshelf/inkshelf/pkg/httputil"
	pkgkafka "github.com/inkshelf/inkshelf/pkg/kafka"
)

// =============================================================================
// Mock BookRepository
// =============================================================================

type mockBookRepo struct {
	mock.Mock
}

func (m *mockBookRepo) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepo) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepo) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepo) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepo) UpdateRating(ctx context.Context, bookID string, summary domain.RatingSummary) error {
	args := m.Called(ctx, bookID, summary)
	return args.Error(0)
}

func (m *mockBookRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =============================================================================
// Mock ReviewRepository
// =============================================================================

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepo) ListApprovedRatings(ctx context.Context, bookID string) ([]int, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockReviewRepo) AddLike(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepo) RemoveLike(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepo) HasLike(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepo) CountLikes(ctx context.Context, reviewID string) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

// =============================================================================
// Mock ReviewFeed
// =============================================================================

type mockFeed struct {
	mock.Mock
}

func (m *mockFeed) Push(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockFeed) Recent(ctx context.Context, limit int) ([]domain.Review, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockFeed) Remove(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}

// =============================================================================
// Mock Recomputer
// =============================================================================

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) Recompute(ctx context.Context, bookID string) (domain.RatingSummary, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

// =============================================================================
// Test helpers
// =============================================================================

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestEventProducer() *event.Producer {
	logger := handlerTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaCfg.Async = true
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func reviewTestService(reviews *mockReviewRepo, books *mockBookRepo, feed *mockFeed, ratings *mockRecomputer) *service.ReviewService {
	logger := handlerTestLogger()
	return service.NewReviewService(reviews, books, feed, ratings, handlerTestEventProducer(), logger)
}

func bookTestService(books *mockBookRepo, ratings *mockRecomputer) *service.BookService {
	return service.NewBookService(books, ratings, handlerTestLogger())
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func sampleBook() *domain.Book {
	now := time.Now().UTC()
	return &domain.Book{
		ID:                  "550e8400-e29b-41d4-a716-446655440001",
		Title:               "The Left Hand of Darkness",
		Author:              "Ursula K. Le Guin",
		Slug:                "the-left-hand-of-darkness",
		Genre:               "science fiction",
		PublishedYear:       1969,
		AverageRating:       0,
		RatingsCount:        0,
		RatingsDistribution: domain.ZeroDistribution(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func sampleReview(status domain.ReviewStatus) *domain.Review {
	now := time.Now().UTC()
	return &domain.Review{
		ID:        "660e8400-e29b-41d4-a716-446655440002",
		BookID:    "550e8400-e29b-41d4-a716-446655440001",
		UserID:    "770e8400-e29b-41d4-a716-446655440003",
		Rating:    4,
		Title:     "Quietly devastating",
		Comment:   "A slow start that pays off in the final third.",
		Status:    status,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
