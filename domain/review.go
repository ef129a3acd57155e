package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewRepository is the interface that holds all the review related repository methods in RentAll
type ReviewRepository interface {
	// CreateReview will insert the Review in the DB
	// It will return db.ErrDuplicateReview when the reviewer already reviewed the listing
	CreateReview(review *Review) error

	// GetListingReviews returns the reviews for a listing, newest first.
	GetListingReviews(listingID uuid.UUID, limit int) ([]*Review, error)

	// HasReviewed reports whether the user already reviewed the listing.
	HasReviewed(listingID uuid.UUID, reviewerID uuid.UUID) (bool, error)

	// GetRatingSummary returns the average rating and review count for the
	// listing. A listing without reviews yields (0, 0, nil).
	GetRatingSummary(listingID uuid.UUID) (avgRating float64, reviewCount int, err error)
}

// Review is a rating left by a renter after a completed rental.
// A user may review a listing at most once.
type Review struct {
	ID             uuid.UUID `json:"id"`              // Unique identifier for the review
	ListingID      uuid.UUID `json:"listing_id"`      // Reviewed listing
	ReviewerID     uuid.UUID `json:"reviewer_id"`     // User that wrote the review
	ReviewerName   string    `json:"reviewer_name"`   // Reviewer display name, joined on read
	ReviewerAvatar *string   `json:"reviewer_avatar"` // Reviewer avatar URL, joined on read
	Rating         int       `json:"rating"`          // Star rating, 1 to 5
	Comment        string    `json:"comment"`         // Review text
	CreatedAt      time.Time `json:"created_at"`      // Timestamp when the review was written
}
