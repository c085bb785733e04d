package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/pkg/health"
	"github.com/inkshelf/inkshelf/pkg/middleware"
)

func newTestRouter(reviews *mockReviewRepo, books *mockBookRepo, feed *mockFeed, ratings *mockRecomputer) http.Handler {
	return NewRouter(
		bookTestService(books, ratings),
		reviewTestService(reviews, books, feed, ratings),
		health.NewHandler(),
		handlerTestLogger(),
		RouterConfig{
			CORS: middleware.CORSConfig{Environment: "development"},
		},
	)
}

func TestRouter_HealthLive(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockBookRepo), new(mockFeed), new(mockRecomputer))

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockBookRepo), new(mockFeed), new(mockRecomputer))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CreateReviewRequiresIdentity(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockBookRepo), new(mockFeed), new(mockRecomputer))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books/550e8400-e29b-41d4-a716-446655440001/reviews", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CreateBookRequiresAdmin(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockBookRepo), new(mockFeed), new(mockRecomputer))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/books", nil)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "770e8400-e29b-41d4-a716-446655440003")
	req.Header.Set(middleware.HeaderUserRole, domain.RoleUser)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ModerationQueueRequiresModerator(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockBookRepo), new(mockFeed), new(mockRecomputer))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/moderation/reviews", nil)
	req.Header.Set(middleware.HeaderUserID, "770e8400-e29b-41d4-a716-446655440003")
	req.Header.Set(middleware.HeaderUserRole, domain.RoleUser)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_PublicBookListNeedsNoIdentity(t *testing.T) {
	books := new(mockBookRepo)
	books.On("List", mock.Anything, mock.Anything).Return([]domain.Book{}, 0, nil)
	router := newTestRouter(new(mockReviewRepo), books, new(mockFeed), new(mockRecomputer))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
