package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oamouyal-jpg/rentall/domain"
)

var _ domain.ReviewRepository = (*Repository)(nil)

var (
	// ErrDuplicateReview is returned when a user reviews a listing twice.
	ErrDuplicateReview = errors.New("listing already reviewed by this user")
)

// dbReview represents a review as stored in the database, together with the
// joined reviewer display fields.
type dbReview struct {
	ID             uuid.UUID      `db:"id"`
	ListingID      uuid.UUID      `db:"listing_id"`
	ReviewerID     uuid.UUID      `db:"reviewer_id"`
	ReviewerName   string         `db:"reviewer_name"`
	ReviewerAvatar sql.NullString `db:"reviewer_avatar"`
	Rating         int            `db:"rating"`
	Comment        string         `db:"comment"`
	CreatedAt      time.Time      `db:"created_at"`
}

// toDomainReview converts a dbReview into a domain.Review.
func toDomainReview(dbReview *dbReview) *domain.Review {
	return &domain.Review{
		ID:             dbReview.ID,
		ListingID:      dbReview.ListingID,
		ReviewerID:     dbReview.ReviewerID,
		ReviewerName:   dbReview.ReviewerName,
		ReviewerAvatar: stringPtr(dbReview.ReviewerAvatar),
		Rating:         dbReview.Rating,
		Comment:        dbReview.Comment,
		CreatedAt:      dbReview.CreatedAt,
	}
}

// CreateReview inserts a new domain.Review into the database.
func (repo *Repository) CreateReview(review *domain.Review) error {
	query := `INSERT INTO reviews(id, listing_id, reviewer_id, rating, comment, created_at)
			  VALUES(?, ?, ?, ?, ?, ?)`
	_, err := repo.dbConn.Exec(query, review.ID, review.ListingID, review.ReviewerID,
		review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateReview
		}
		return fmt.Errorf("inserting review %s : %w", review.ID, err)
	}
	return nil
}

// GetListingReviews retrieves the reviews for a listing, newest first.
func (repo *Repository) GetListingReviews(listingID uuid.UUID, limit int) ([]*domain.Review, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbReviews []*dbReview
	query := `SELECT r.id, r.listing_id, r.reviewer_id, r.rating, r.comment, r.created_at,
				u.name AS reviewer_name, u.avatar_url AS reviewer_avatar
			  FROM reviews r
			  JOIN users u ON u.id = r.reviewer_id
			  WHERE r.listing_id = ?
			  ORDER BY r.created_at DESC
			  LIMIT ?`

	err := repo.dbConn.Select(&dbReviews, query, listingID, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving reviews for listing %s : %w", listingID, err)
	}

	reviews := make([]*domain.Review, len(dbReviews))
	for i, dbReview := range dbReviews {
		reviews[i] = toDomainReview(dbReview)
	}
	return reviews, nil
}

// HasReviewed reports whether the user already reviewed the listing.
func (repo *Repository) HasReviewed(listingID uuid.UUID, reviewerID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM reviews WHERE listing_id = ? AND reviewer_id = ?`

	err := repo.dbConn.Get(&count, query, listingID, reviewerID)
	if err != nil {
		return false, fmt.Errorf("checking existing review for listing %s : %w", listingID, err)
	}

	return count > 0, nil
}

// GetRatingSummary returns the average rating and review count for the listing.
func (repo *Repository) GetRatingSummary(listingID uuid.UUID) (float64, int, error) {
	var summary struct {
		AvgRating   float64 `db:"avg_rating"`
		ReviewCount int     `db:"review_count"`
	}
	query := `SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS review_count
			  FROM reviews
			  WHERE listing_id = ?`

	err := repo.dbConn.Get(&summary, query, listingID)
	if err != nil {
		return 0, 0, fmt.Errorf("summarizing reviews for listing %s : %w", listingID, err)
	}

	return summary.AvgRating, summary.ReviewCount, nil
}
