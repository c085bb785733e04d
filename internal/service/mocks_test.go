package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/event"
	"github.com/inkshelf/inkshelf/internal/repository"
	pkgkafka "github.com/inkshelf/inkshelf/pkg/kafka"
)

// --- Repository mocks ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) ListApprovedRatings(ctx context.Context, bookID string) ([]int, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockReviewRepository) AddLike(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) RemoveLike(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) HasLike(ctx context.Context, reviewID, userID string) (bool, error) {
	args := m.Called(ctx, reviewID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReviewRepository) CountLikes(ctx context.Context, reviewID string) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

type mockBookRepository struct {
	mock.Mock
}

func (m *mockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) GetBySlug(ctx context.Context, slug string) (*domain.Book, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepository) UpdateRating(ctx context.Context, bookID string, summary domain.RatingSummary) error {
	args := m.Called(ctx, bookID, summary)
	return args.Error(0)
}

func (m *mockBookRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

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

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) Recompute(ctx context.Context, bookID string) (domain.RatingSummary, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer builds an event producer whose publishes fail silently in
// tests. The writer is async so WriteMessages never blocks on the absent
// broker.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaCfg.Async = true
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
