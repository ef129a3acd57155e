package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus tracks a booking through its lifetime. There is no state
// machine beyond these values: owners move bookings between them and the
// payment flow sets StatusPaid.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusPaid      BookingStatus = "paid"
)

// ActiveBookingStatuses are the statuses that block a listing's dates.
var ActiveBookingStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusPaid}

// BookingRepository is the interface that holds all the booking related repository methods in RentAll
type BookingRepository interface {
	// CreateBooking will insert the Booking in the DB
	CreateBooking(booking *Booking) error

	// GetBooking will return the booking for the given ID
	// It will return db.ErrBookingNotFound if the booking doesn't exist
	GetBooking(id uuid.UUID) (*Booking, error)

	// GetBookingsByRenter returns the bookings placed by the given user, newest first.
	GetBookingsByRenter(renterID uuid.UUID, limit int) ([]*Booking, error)

	// GetBookingsByOwner returns the booking requests received by the given
	// listing owner, newest first.
	GetBookingsByOwner(ownerID uuid.UUID, limit int) ([]*Booking, error)

	// UpdateBookingStatus sets the status of the booking.
	UpdateBookingStatus(id uuid.UUID, status BookingStatus) error

	// HasDateConflict reports whether an active booking for the listing
	// overlaps the inclusive [start, end] date range.
	HasDateConflict(listingID uuid.UUID, startDate string, endDate string) (bool, error)

	// GetBookedRanges returns the date ranges held by active bookings of the
	// listing, for availability calendars.
	GetBookedRanges(listingID uuid.UUID) ([]DateRange, error)

	// HasCompletedBooking reports whether the renter has a completed or paid
	// booking for the listing, which is what gates reviews.
	HasCompletedBooking(listingID uuid.UUID, renterID uuid.UUID) (bool, error)
}

// Booking represents a rental request for a date range on a listing.
// The listing title and first image are snapshotted at creation time so the
// booking keeps describing what was booked even if the listing changes.
type Booking struct {
	ID              uuid.UUID     `json:"id"`               // Unique identifier for the booking
	ListingID       uuid.UUID     `json:"listing_id"`       // Booked listing
	ListingTitle    string        `json:"listing_title"`    // Listing title at booking time
	ListingImage    *string       `json:"listing_image"`    // First listing image at booking time
	RenterID        uuid.UUID     `json:"renter_id"`        // User renting the item
	RenterName      string        `json:"renter_name"`      // Renter display name, joined on read
	OwnerID         uuid.UUID     `json:"owner_id"`         // Listing owner at booking time
	StartDate       string        `json:"start_date"`       // First rental day, YYYY-MM-DD
	EndDate         string        `json:"end_date"`         // Last rental day, YYYY-MM-DD
	DurationType    string        `json:"duration_type"`    // hourly, daily or weekly
	Hours           int           `json:"hours"`            // Booked hours for hourly rentals
	TotalPrice      float64       `json:"total_price"`      // Final price after surge and discounts
	PlatformFee     float64       `json:"platform_fee"`     // Marketplace cut of the total
	SurgeDays       int           `json:"surge_days"`       // Days the surge percentage applied to
	DiscountApplied float64       `json:"discount_applied"` // Discount percent applied, 0 when none
	DiscountLabel   string        `json:"discount_label"`   // weekly, monthly or quarterly, empty when none
	Status          BookingStatus `json:"status"`           // Current lifecycle status
	CreatedAt       time.Time     `json:"created_at"`       // Timestamp when the booking was placed
}

// DateRange is a booked span returned for availability calendars.
type DateRange struct {
	Start string `json:"start"` // First booked day, YYYY-MM-DD
	End   string `json:"end"`   // Last booked day, YYYY-MM-DD
}
