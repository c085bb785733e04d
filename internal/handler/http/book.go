package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/repository"
	"github.com/inkshelf/inkshelf/internal/service"
	"github.com/inkshelf/inkshelf/pkg/httputil"
	"github.com/inkshelf/inkshelf/pkg/pagination"
	"github.com/inkshelf/inkshelf/pkg/validator"
)

// BookHandler handles HTTP requests for catalog endpoints.
type BookHandler struct {
	service *service.BookService
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateBookRequest is the JSON request body for adding a book.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=500"`
	Author        string `json:"author" validate:"required,max=255"`
	Description   string `json:"description"`
	Genre         string `json:"genre" validate:"max=100"`
	PublishedYear int    `json:"published_year" validate:"omitempty,min=0,max=2100"`
	CoverImageURL string `json:"cover_image_url" validate:"omitempty,url"`
}

// UpdateBookRequest is the JSON request body for a partial book update.
type UpdateBookRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=500"`
	Author        *string `json:"author" validate:"omitempty,max=255"`
	Description   *string `json:"description"`
	Genre         *string `json:"genre" validate:"omitempty,max=100"`
	PublishedYear *int    `json:"published_year" validate:"omitempty,min=0,max=2100"`
	CoverImageURL *string `json:"cover_image_url" validate:"omitempty,url"`
}

// --- Handlers ---

// ListBooks handles GET /api/v1/books
// @Summary List books
// @Description Returns a paginated slice of the catalog with optional filters
// @Tags books
// @Produce json
// @Param genre query string false "Filter by genre"
// @Param author query string false "Filter by author"
// @Param search query string false "Full-text search over title and author"
// @Param min_rating query number false "Minimum average rating"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/books [get]
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	filter := repository.BookFilter{
		Page:  params.Page,
		Limit: params.Limit,
	}

	q := r.URL.Query()
	if v := q.Get("genre"); v != "" {
		filter.Genre = &v
	}
	if v := q.Get("author"); v != "" {
		filter.Author = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("min_rating"); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil || min < 0 || min > 5 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "min_rating must be a number between 0 and 5"},
			})
			return
		}
		filter.MinRating = &min
	}

	books, total, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(books, total, params))
}

// GetBook handles GET /api/v1/books/{idOrSlug}
// It accepts both a UUID (book ID) and a slug for lookup.
// @Summary Get book by ID or slug
// @Description Returns a book with its denormalized rating aggregate. Accepts both UUID and URL slug.
// @Tags books
// @Produce json
// @Param idOrSlug path string true "Book UUID or URL slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/books/{idOrSlug} [get]
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id or slug is required"},
		})
		return
	}

	var (
		book *domain.Book
		err  error
	)

	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		book, err = h.service.GetBook(r.Context(), idOrSlug)
	} else {
		book, err = h.service.GetBookBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// CreateBook handles POST /api/v1/books
// @Summary Add a book to the catalog
// @Description Creates a new book. Admin only.
// @Tags books
// @Accept json
// @Produce json
// @Param request body CreateBookRequest true "Book to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/books [post]
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		CoverImageURL: req.CoverImageURL,
	}

	book, err := h.service.CreateBook(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: book})
}

// UpdateBook handles PUT /api/v1/books/{id}
// @Summary Update a book
// @Description Applies a partial update to a book's catalog fields. Admin only.
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book UUID"
// @Param request body UpdateBookRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/books/{id} [put]
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.UpdateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		CoverImageURL: req.CoverImageURL,
	}

	book, err := h.service.UpdateBook(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: book})
}

// DeleteBook handles DELETE /api/v1/books/{id}
// @Summary Delete a book
// @Description Removes a book and, via cascade, its reviews. Admin only.
// @Tags books
// @Produce json
// @Param id path string true "Book UUID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecomputeRating handles POST /api/v1/admin/books/{bookId}/rating/recompute
// @Summary Recompute a book's rating aggregate
// @Description Forces a full recomputation of the denormalized rating aggregate. Admin tooling for converging after missed trailing updates.
// @Tags admin
// @Produce json
// @Param bookId path string true "Book UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/admin/books/{bookId}/rating/recompute [post]
func (h *BookHandler) RecomputeRating(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if bookID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	summary, err := h.service.RepairRating(r.Context(), bookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
