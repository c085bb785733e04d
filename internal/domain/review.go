package domain

import "time"

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// IsValidReviewStatus reports whether s is a known review status.
func IsValidReviewStatus(s string) bool {
	switch ReviewStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Caller roles injected by the gateway.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// IsModerator reports whether the role grants moderation privileges.
func IsModerator(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}

// Review is a user's rating and commentary on a book. At most one review
// exists per (book, user) pair. Only approved reviews contribute to a book's
// rating aggregate and are publicly visible.
type Review struct {
	ID              string       `json:"id"`
	BookID          string       `json:"book_id"`
	UserID          string       `json:"user_id"`
	Rating          int          `json:"rating"`
	Title           string       `json:"title,omitempty"`
	Comment         string       `json:"comment"`
	Status          ReviewStatus `json:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
	Edited          bool         `json:"edited"`
	LikesCount      int          `json:"likes_count"`
	Version         int          `json:"version"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// IsApproved reports whether the review is publicly visible.
func (r *Review) IsApproved() bool {
	return r.Status == StatusApproved
}

// ReviewLike records that a user found a review helpful.
type ReviewLike struct {
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
