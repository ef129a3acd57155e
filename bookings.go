package rentall

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oamouyal-jpg/rentall/db"
	"github.com/oamouyal-jpg/rentall/domain"
	"github.com/oamouyal-jpg/rentall/pricing"
)

type bookingRequest struct {
	ListingID    string `json:"listing_id" binding:"required"`
	StartDate    string `json:"start_date" binding:"required"`
	EndDate      string `json:"end_date" binding:"required"`
	DurationType string `json:"duration_type"`
	Hours        int    `json:"hours"`
}

// statusTransitions are the booking statuses an owner may set directly.
// Pending is only ever set by creation and paid only by the payment flow.
var statusTransitions = []domain.BookingStatus{
	domain.StatusConfirmed,
	domain.StatusRejected,
	domain.StatusCompleted,
	domain.StatusCancelled,
}

// createBooking places a booking request on a listing. The requested dates
// are checked against existing active bookings before the price is quoted,
// and the booking snapshots the listing title and image so history survives
// listing edits.
func (server *Server) createBooking(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		detail(c, http.StatusNotFound, "Listing not found")
		return
	}
	listing, err := server.Repo.GetListing(listingID)
	if err != nil {
		if errors.Is(err, db.ErrListingNotFound) {
			detail(c, http.StatusNotFound, "Listing not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if listing.OwnerID == user.ID {
		detail(c, http.StatusBadRequest, "Cannot book your own listing")
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		detail(c, http.StatusBadRequest, "Invalid date format")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		detail(c, http.StatusBadRequest, "Invalid date format")
		return
	}
	conflict, err := server.Repo.HasDateConflict(listingID, req.StartDate, req.EndDate)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if conflict {
		detail(c, http.StatusBadRequest, "Dates not available")
		return
	}

	quote, err := pricing.Calculate(pricing.Rates{
		HourRate:          listing.PricePerHour,
		DayRate:           listing.PricePerDay,
		WeekRate:          listing.PricePerWeek,
		MinHours:          listing.MinRentalHours,
		MinDays:           listing.MinRentalDays,
		SurgeEnabled:      listing.SurgeEnabled,
		SurgePercentage:   listing.SurgePercentage,
		SurgeWeekends:     listing.SurgeWeekends,
		SurgeDates:        listing.SurgeDates,
		DiscountWeekly:    listing.DiscountWeekly,
		DiscountMonthly:   listing.DiscountMonthly,
		DiscountQuarterly: listing.DiscountQuarterly,
	}, pricing.Request{
		Start:    start,
		End:      end,
		Duration: pricing.Duration(req.DurationType),
		Hours:    req.Hours,
	}, server.Config.PlatformFee)
	if err != nil {
		var quoteErr pricing.QuoteError
		if errors.As(err, &quoteErr) {
			detail(c, http.StatusBadRequest, quoteErr.Error())
			return
		}
		server.internalError(c, err)
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		server.internalError(c, fmt.Errorf("generating booking id : %w", err))
		return
	}
	var listingImage *string
	if len(listing.Images) > 0 {
		listingImage = &listing.Images[0]
	}
	booking := &domain.Booking{
		ID:              id,
		ListingID:       listingID,
		ListingTitle:    listing.Title,
		ListingImage:    listingImage,
		RenterID:        user.ID,
		OwnerID:         listing.OwnerID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		DurationType:    string(quote.Duration),
		Hours:           quote.Hours,
		TotalPrice:      quote.Total,
		PlatformFee:     quote.PlatformFee,
		SurgeDays:       quote.SurgeDays,
		DiscountApplied: quote.DiscountPercent,
		DiscountLabel:   quote.DiscountLabel,
		Status:          domain.StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := server.Repo.CreateBooking(booking); err != nil {
		server.internalError(c, err)
		return
	}
	created, err := server.Repo.GetBooking(booking.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (server *Server) getMyBookings(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	bookings, err := server.Repo.GetBookingsByRenter(user.ID, 100)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(bookings))
}

// getBookingRequests returns the bookings placed on the current user's
// listings.
func (server *Server) getBookingRequests(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	bookings, err := server.Repo.GetBookingsByOwner(user.ID, 100)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(bookings))
}

// getBooking returns one booking to its renter or owner. Everyone else sees
// the same 404 as for a booking that doesn't exist.
func (server *Server) getBooking(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusNotFound, "Booking not found")
		return
	}
	booking, err := server.Repo.GetBooking(id)
	if err != nil {
		if errors.Is(err, db.ErrBookingNotFound) {
			detail(c, http.StatusNotFound, "Booking not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if booking.RenterID != user.ID && booking.OwnerID != user.ID {
		detail(c, http.StatusForbidden, "Not authorized")
		return
	}
	c.JSON(http.StatusOK, booking)
}

// updateBookingStatus lets the listing owner move a booking through its
// lifecycle. The new status comes from the status query parameter.
func (server *Server) updateBookingStatus(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusNotFound, "Booking not found")
		return
	}
	booking, err := server.Repo.GetBooking(id)
	if err != nil {
		if errors.Is(err, db.ErrBookingNotFound) {
			detail(c, http.StatusNotFound, "Booking not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if booking.OwnerID != user.ID {
		detail(c, http.StatusForbidden, "Not authorized")
		return
	}
	status := domain.BookingStatus(c.Query("status"))
	allowed := false
	for _, transition := range statusTransitions {
		if status == transition {
			allowed = true
			break
		}
	}
	if !allowed {
		detail(c, http.StatusBadRequest, "Invalid status")
		return
	}
	if err := server.Repo.UpdateBookingStatus(id, status); err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Booking %s", status)})
}

// getBookedDates returns the active booked ranges for a listing so calendars
// can grey them out. The endpoint is public, an unknown listing simply has no
// booked dates.
func (server *Server) getBookedDates(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, []domain.DateRange{})
		return
	}
	ranges, err := server.Repo.GetBookedRanges(listingID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(ranges))
}
