package rentall

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oamouyal-jpg/rentall/db"
	"github.com/oamouyal-jpg/rentall/domain"
)

type reviewRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// createReview stores a review and refreshes the listing's rating aggregate.
// Only renters with a completed or paid booking on the listing may review,
// and only once.
func (server *Server) createReview(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		detail(c, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		detail(c, http.StatusNotFound, "Listing not found")
		return
	}
	if _, err := server.Repo.GetListing(listingID); err != nil {
		if errors.Is(err, db.ErrListingNotFound) {
			detail(c, http.StatusNotFound, "Listing not found")
			return
		}
		server.internalError(c, err)
		return
	}
	completed, err := server.Repo.HasCompletedBooking(listingID, user.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if !completed {
		detail(c, http.StatusBadRequest, "Must complete a rental to review")
		return
	}
	reviewed, err := server.Repo.HasReviewed(listingID, user.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if reviewed {
		detail(c, http.StatusBadRequest, "Already reviewed this listing")
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		server.internalError(c, fmt.Errorf("generating review id : %w", err))
		return
	}
	review := &domain.Review{
		ID:         id,
		ListingID:  listingID,
		ReviewerID: user.ID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := server.Repo.CreateReview(review); err != nil {
		if errors.Is(err, db.ErrDuplicateReview) {
			detail(c, http.StatusBadRequest, "Already reviewed this listing")
			return
		}
		server.internalError(c, err)
		return
	}

	avg, count, err := server.Repo.GetRatingSummary(listingID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if err := server.Repo.UpdateListingRating(listingID, math.Round(avg*10)/10, count); err != nil {
		server.internalError(c, err)
		return
	}

	review.ReviewerName = user.Name
	review.ReviewerAvatar = user.AvatarURL
	c.JSON(http.StatusOK, review)
}

// getListingReviews returns a listing's reviews, newest first. The endpoint
// is public, an unknown listing simply has no reviews.
func (server *Server) getListingReviews(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, []*domain.Review{})
		return
	}
	reviews, err := server.Repo.GetListingReviews(listingID, 100)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(reviews))
}
