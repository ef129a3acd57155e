package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListingRepository is the interface that holds all the listing related repository methods in RentAll
type ListingRepository interface {
	// CreateListing will insert the Listing in the DB
	CreateListing(listing *Listing) error

	// GetListing will return the listing for the given ID with the owner fields joined in
	// It will return db.ErrListingNotFound if the listing doesn't exist
	GetListing(id uuid.UUID) (*Listing, error)

	// GetListings returns listings matching the filter, newest first.
	// A zero-value filter returns every listing up to the filter limit.
	GetListings(filter ListingFilter) ([]*Listing, error)

	// GetFeaturedListings returns available listings ordered by rating, best first.
	GetFeaturedListings(limit int) ([]*Listing, error)

	// GetListingsByOwner returns the listings created by the given user.
	GetListingsByOwner(ownerID uuid.UUID, limit int) ([]*Listing, error)

	// UpdateListing applies the non-nil fields of the update to the listing
	// and returns the updated listing.
	UpdateListing(id uuid.UUID, update ListingUpdate) (*Listing, error)

	// DeleteListing removes the listing. It returns db.ErrListingNotFound
	// if no row was deleted.
	DeleteListing(id uuid.UUID) error

	// UpdateListingRating stores the recomputed review aggregate on the listing.
	UpdateListingRating(id uuid.UUID, avgRating float64, reviewCount int) error
}

// Listing represents an item or service offered for rent.
//
// The three rates are independent: an owner may offer any combination of
// hourly, daily, and weekly pricing, and bookings are rejected when the
// requested duration type has no rate.
type Listing struct {
	ID                uuid.UUID `json:"id"`                 // Unique identifier for the listing
	OwnerID           uuid.UUID `json:"owner_id"`           // User that created the listing
	OwnerName         string    `json:"owner_name"`         // Owner display name, joined on read
	OwnerAvatar       *string   `json:"owner_avatar"`       // Owner avatar URL, joined on read
	Title             string    `json:"title"`              // Short listing title
	Description       string    `json:"description"`        // Full listing description
	Category          string    `json:"category"`           // Category id from the fixed catalog
	PricePerHour      *float64  `json:"price_per_hour"`     // Hourly rate, nil when hourly rental is not offered
	PricePerDay       *float64  `json:"price_per_day"`      // Daily rate, nil when daily rental is not offered
	PricePerWeek      *float64  `json:"price_per_week"`     // Weekly rate, nil when weekly rental is not offered
	MinRentalHours    int       `json:"min_rental_hours"`   // Minimum hours for hourly bookings
	MinRentalDays     int       `json:"min_rental_days"`    // Minimum days for daily bookings
	SurgeEnabled      bool      `json:"surge_enabled"`      // Whether surge pricing applies at all
	SurgePercentage   float64   `json:"surge_percentage"`   // Percent added on surge days
	SurgeWeekends     bool      `json:"surge_weekends"`     // Whether Saturdays and Sundays are surge days
	SurgeDates        []string  `json:"surge_dates"`        // Extra surge dates in YYYY-MM-DD form
	DiscountWeekly    float64   `json:"discount_weekly"`    // Percent off for 7+ day rentals, 0 disables
	DiscountMonthly   float64   `json:"discount_monthly"`   // Percent off for 30+ day rentals, 0 disables
	DiscountQuarterly float64   `json:"discount_quarterly"` // Percent off for 90+ day rentals, 0 disables
	Location          string    `json:"location"`           // Free-form location label
	Latitude          float64   `json:"latitude"`           // Pickup latitude
	Longitude         float64   `json:"longitude"`          // Pickup longitude
	Images            []string  `json:"images"`             // Image URLs
	AvgRating         float64   `json:"avg_rating"`         // Review average rounded to one decimal
	ReviewCount       int       `json:"review_count"`       // Number of reviews behind the average
	IsAvailable       bool      `json:"is_available"`       // Whether the listing accepts bookings
	CreatedAt         time.Time `json:"created_at"`         // Timestamp when the listing was created
}

// ListingFilter narrows GetListings results. Nil / zero fields are ignored.
type ListingFilter struct {
	Category string   // Exact category id
	Query    string   // Case-insensitive substring over title and description
	MinPrice *float64 // Lower bound on the daily rate
	MaxPrice *float64 // Upper bound on the daily rate
	MinLat   *float64 // Bounding box for radius searches
	MaxLat   *float64
	MinLng   *float64
	MaxLng   *float64
	Limit    int
}

// ListingUpdate carries the listing fields an owner is allowed to change.
// Nil fields are left untouched.
type ListingUpdate struct {
	Title             *string
	Description       *string
	Category          *string
	PricePerHour      *float64
	PricePerDay       *float64
	PricePerWeek      *float64
	MinRentalHours    *int
	MinRentalDays     *int
	SurgeEnabled      *bool
	SurgePercentage   *float64
	SurgeWeekends     *bool
	SurgeDates        *[]string
	DiscountWeekly    *float64
	DiscountMonthly   *float64
	DiscountQuarterly *float64
	Location          *string
	Latitude          *float64
	Longitude         *float64
	Images            *[]string
	IsAvailable       *bool
}
