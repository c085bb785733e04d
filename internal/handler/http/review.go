package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkshelf/inkshelf/internal/domain"
	"github.com/inkshelf/inkshelf/internal/service"
	"github.com/inkshelf/inkshelf/pkg/httputil"
	"github.com/inkshelf/inkshelf/pkg/middleware"
	"github.com/inkshelf/inkshelf/pkg/pagination"
	"github.com/inkshelf/inkshelf/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for submitting a review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"required,max=100"`
	Comment string `json:"comment" validate:"required,max=5000"`
}

// UpdateReviewRequest is the JSON request body for a partial review update.
// Status and rejection_reason are moderator only.
type UpdateReviewRequest struct {
	Rating          *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title           *string `json:"title" validate:"omitempty,min=1,max=100"`
	Comment         *string `json:"comment" validate:"omitempty,max=5000"`
	Status          *string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=1000"`
}

// --- Handlers ---

// CreateReview handles POST /api/v1/books/{bookId}/reviews
// @Summary Submit a review
// @Description Submits a review for a book. Regular users start in pending moderation; moderators are approved immediately.
// @Tags reviews
// @Accept json
// @Produce json
// @Param bookId path string true "Book UUID"
// @Param request body CreateReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/books/{bookId}/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if bookID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
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

	input := &service.CreateReviewInput{
		BookID:  bookID,
		UserID:  middleware.UserIDFromContext(r.Context()),
		Role:    middleware.RoleFromContext(r.Context()),
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	}

	review, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// ListBookReviews handles GET /api/v1/books/{bookId}/reviews
// @Summary List a book's reviews
// @Description Returns paginated reviews for a book. Non-moderators only ever see approved reviews.
// @Tags reviews
// @Produce json
// @Param bookId path string true "Book UUID"
// @Param status query string false "Filter by status (moderator only)" Enums(pending, approved, rejected)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/books/{bookId}/reviews [get]
func (h *ReviewHandler) ListBookReviews(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	if bookID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "book id is required"},
		})
		return
	}

	params := pagination.FromRequest(r)

	var status *domain.ReviewStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.ReviewStatus(v)
		status = &s
	}

	role := middleware.RoleFromContext(r.Context())

	reviews, total, err := h.service.ListBookReviews(r.Context(), bookID, role, status, params.Page, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// GetReview handles GET /api/v1/reviews/{id}
// @Summary Get a review
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [get]
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// UpdateReview handles PATCH /api/v1/reviews/{id}
// @Summary Update a review
// @Description Applies a partial update. Authors may edit rating, title, and comment; status transitions are moderator only. A stale read surfaces as 409; re-read and retry.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review UUID"
// @Param request body UpdateReviewRequest true "Fields to update"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [patch]
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateReviewRequest
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

	input := &service.UpdateReviewInput{
		Rating:          req.Rating,
		Title:           req.Title,
		Comment:         req.Comment,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
	}

	callerID := middleware.UserIDFromContext(r.Context())
	role := middleware.RoleFromContext(r.Context())

	review, err := h.service.UpdateReview(r.Context(), id, callerID, role, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
// @Summary Delete a review
// @Description Authors may delete their own reviews; moderators may delete any.
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	callerID := middleware.UserIDFromContext(r.Context())
	role := middleware.RoleFromContext(r.Context())

	if err := h.service.DeleteReview(r.Context(), id, callerID, role); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike handles POST /api/v1/reviews/{id}/like
// @Summary Toggle a like on a review
// @Description Flips the caller's like on an approved review. Liking your own review is rejected.
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/like [post]
func (h *ReviewHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	result, err := h.service.ToggleLike(r.Context(), id, userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ListUserReviews handles GET /api/v1/users/{userId}/reviews
// @Summary List a user's reviews
// @Description Users see all of their own reviews; everyone else sees only the approved ones.
// @Tags reviews
// @Produce json
// @Param userId path string true "User UUID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/users/{userId}/reviews [get]
func (h *ReviewHandler) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "user id is required"},
		})
		return
	}

	params := pagination.FromRequest(r)

	callerID := middleware.UserIDFromContext(r.Context())
	role := middleware.RoleFromContext(r.Context())

	reviews, total, err := h.service.ListUserReviews(r.Context(), userID, callerID, role, params.Page, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// ListPendingReviews handles GET /api/v1/moderation/reviews
// @Summary List the moderation queue
// @Description Returns pending reviews awaiting moderation. Moderator only.
// @Tags moderation
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/moderation/reviews [get]
func (h *ReviewHandler) ListPendingReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	role := middleware.RoleFromContext(r.Context())

	reviews, total, err := h.service.ListPendingReviews(r.Context(), role, params.Page, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, total, params))
}

// RecentReviews handles GET /api/v1/reviews/recent
// @Summary Recently approved reviews
// @Description Returns the most recently approved reviews, served from the cache with a database fallback.
// @Tags reviews
// @Produce json
// @Param limit query int false "Number of reviews (max 50)" default(10)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/reviews/recent [get]
func (h *ReviewHandler) RecentReviews(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	reviews, err := h.service.RecentReviews(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}
