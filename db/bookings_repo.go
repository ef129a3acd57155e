package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oamouyal-jpg/rentall/domain"
)

var _ domain.BookingRepository = (*Repository)(nil)

var (
	// ErrBookingNotFound is returned when no booking exists for the given ID.
	ErrBookingNotFound = errors.New("booking not found")
)

// bookingColumns is the select list shared by every booking query. The renter
// display name is joined from the users table; the listing title and image
// are snapshots stored on the booking row itself.
const bookingColumns = `b.id, b.listing_id, b.listing_title, b.listing_image,
	b.renter_id, b.owner_id, b.start_date, b.end_date,
	b.duration_type, b.hours, b.total_price, b.platform_fee,
	b.surge_days, b.discount_applied, b.discount_label, b.status, b.created_at,
	u.name AS renter_name`

// dbBooking represents a booking as stored in the database, together with
// the joined renter display name.
type dbBooking struct {
	ID              uuid.UUID      `db:"id"`
	ListingID       uuid.UUID      `db:"listing_id"`
	ListingTitle    string         `db:"listing_title"`
	ListingImage    sql.NullString `db:"listing_image"`
	RenterID        uuid.UUID      `db:"renter_id"`
	RenterName      string         `db:"renter_name"`
	OwnerID         uuid.UUID      `db:"owner_id"`
	StartDate       string         `db:"start_date"`
	EndDate         string         `db:"end_date"`
	DurationType    string         `db:"duration_type"`
	Hours           int            `db:"hours"`
	TotalPrice      float64        `db:"total_price"`
	PlatformFee     float64        `db:"platform_fee"`
	SurgeDays       int            `db:"surge_days"`
	DiscountApplied float64        `db:"discount_applied"`
	DiscountLabel   string         `db:"discount_label"`
	Status          string         `db:"status"`
	CreatedAt       time.Time      `db:"created_at"`
}

// fromDomainBooking converts a domain.Booking into a dbBooking for database insertion.
// The joined renter name is not part of the booking row and is left empty.
func fromDomainBooking(booking *domain.Booking) *dbBooking {
	return &dbBooking{
		ID:              booking.ID,
		ListingID:       booking.ListingID,
		ListingTitle:    booking.ListingTitle,
		ListingImage:    nullString(booking.ListingImage),
		RenterID:        booking.RenterID,
		OwnerID:         booking.OwnerID,
		StartDate:       booking.StartDate,
		EndDate:         booking.EndDate,
		DurationType:    booking.DurationType,
		Hours:           booking.Hours,
		TotalPrice:      booking.TotalPrice,
		PlatformFee:     booking.PlatformFee,
		SurgeDays:       booking.SurgeDays,
		DiscountApplied: booking.DiscountApplied,
		DiscountLabel:   booking.DiscountLabel,
		Status:          string(booking.Status),
		CreatedAt:       booking.CreatedAt,
	}
}

// toDomainBooking converts a dbBooking into a domain.Booking.
func toDomainBooking(dbBooking *dbBooking) *domain.Booking {
	return &domain.Booking{
		ID:              dbBooking.ID,
		ListingID:       dbBooking.ListingID,
		ListingTitle:    dbBooking.ListingTitle,
		ListingImage:    stringPtr(dbBooking.ListingImage),
		RenterID:        dbBooking.RenterID,
		RenterName:      dbBooking.RenterName,
		OwnerID:         dbBooking.OwnerID,
		StartDate:       dbBooking.StartDate,
		EndDate:         dbBooking.EndDate,
		DurationType:    dbBooking.DurationType,
		Hours:           dbBooking.Hours,
		TotalPrice:      dbBooking.TotalPrice,
		PlatformFee:     dbBooking.PlatformFee,
		SurgeDays:       dbBooking.SurgeDays,
		DiscountApplied: dbBooking.DiscountApplied,
		DiscountLabel:   dbBooking.DiscountLabel,
		Status:          domain.BookingStatus(dbBooking.Status),
		CreatedAt:       dbBooking.CreatedAt,
	}
}

// toDomainBookings converts a slice of database rows.
func toDomainBookings(dbBookings []*dbBooking) []*domain.Booking {
	bookings := make([]*domain.Booking, len(dbBookings))
	for i, dbBooking := range dbBookings {
		bookings[i] = toDomainBooking(dbBooking)
	}
	return bookings
}

// CreateBooking inserts a new domain.Booking into the database.
func (repo *Repository) CreateBooking(booking *domain.Booking) error {
	dbBooking := fromDomainBooking(booking)
	query := `INSERT INTO bookings(id, listing_id, listing_title, listing_image,
				renter_id, owner_id, start_date, end_date,
				duration_type, hours, total_price, platform_fee,
				surge_days, discount_applied, discount_label, status, created_at)
			  VALUES(:id, :listing_id, :listing_title, :listing_image,
				:renter_id, :owner_id, :start_date, :end_date,
				:duration_type, :hours, :total_price, :platform_fee,
				:surge_days, :discount_applied, :discount_label, :status, :created_at)`
	_, err := repo.dbConn.NamedExec(query, dbBooking)
	if err != nil {
		return fmt.Errorf("inserting booking %s : %w", booking.ID, err)
	}
	return nil
}

// GetBooking retrieves the booking with the given ID.
func (repo *Repository) GetBooking(id uuid.UUID) (*domain.Booking, error) {
	var dbBooking dbBooking
	query := `SELECT ` + bookingColumns + `
			  FROM bookings b
			  JOIN users u ON u.id = b.renter_id
			  WHERE b.id = ?`

	err := repo.dbConn.Get(&dbBooking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("getting booking with id %s : %w", id, err)
	}

	return toDomainBooking(&dbBooking), nil
}

// GetBookingsByRenter retrieves the bookings placed by the given user, newest first.
func (repo *Repository) GetBookingsByRenter(renterID uuid.UUID, limit int) ([]*domain.Booking, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbBookings []*dbBooking
	query := `SELECT ` + bookingColumns + `
			  FROM bookings b
			  JOIN users u ON u.id = b.renter_id
			  WHERE b.renter_id = ?
			  ORDER BY b.created_at DESC
			  LIMIT ?`

	err := repo.dbConn.Select(&dbBookings, query, renterID, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving bookings for renter %s : %w", renterID, err)
	}

	return toDomainBookings(dbBookings), nil
}

// GetBookingsByOwner retrieves the booking requests received by the given
// listing owner, newest first.
func (repo *Repository) GetBookingsByOwner(ownerID uuid.UUID, limit int) ([]*domain.Booking, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbBookings []*dbBooking
	query := `SELECT ` + bookingColumns + `
			  FROM bookings b
			  JOIN users u ON u.id = b.renter_id
			  WHERE b.owner_id = ?
			  ORDER BY b.created_at DESC
			  LIMIT ?`

	err := repo.dbConn.Select(&dbBookings, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving bookings for owner %s : %w", ownerID, err)
	}

	return toDomainBookings(dbBookings), nil
}

// UpdateBookingStatus sets the status of the booking.
func (repo *Repository) UpdateBookingStatus(id uuid.UUID, status domain.BookingStatus) error {
	query := `UPDATE bookings SET status = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, string(status), id)
	if err != nil {
		return fmt.Errorf("updating status for booking %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking status update rows affected for %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// HasDateConflict reports whether an active booking for the listing overlaps
// the inclusive [startDate, endDate] range. Dates compare lexicographically
// because they are stored in YYYY-MM-DD form.
func (repo *Repository) HasDateConflict(listingID uuid.UUID, startDate string, endDate string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM bookings
			  WHERE listing_id = ?
			    AND status IN ('pending', 'confirmed', 'paid')
			    AND start_date <= ?
			    AND end_date >= ?`

	err := repo.dbConn.Get(&count, query, listingID, endDate, startDate)
	if err != nil {
		return false, fmt.Errorf("checking date conflict for listing %s : %w", listingID, err)
	}

	return count > 0, nil
}

// GetBookedRanges returns the date ranges held by active bookings of the listing.
func (repo *Repository) GetBookedRanges(listingID uuid.UUID) ([]domain.DateRange, error) {
	type dbRange struct {
		Start string `db:"start_date"`
		End   string `db:"end_date"`
	}

	var dbRanges []dbRange
	query := `SELECT start_date, end_date FROM bookings
			  WHERE listing_id = ?
			    AND status IN ('pending', 'confirmed', 'paid')
			  ORDER BY start_date
			  LIMIT 100`

	err := repo.dbConn.Select(&dbRanges, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("retrieving booked ranges for listing %s : %w", listingID, err)
	}

	ranges := make([]domain.DateRange, len(dbRanges))
	for i, dbRange := range dbRanges {
		ranges[i] = domain.DateRange{Start: dbRange.Start, End: dbRange.End}
	}
	return ranges, nil
}

// HasCompletedBooking reports whether the renter finished a rental of the
// listing, which is the precondition for leaving a review.
func (repo *Repository) HasCompletedBooking(listingID uuid.UUID, renterID uuid.UUID) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM bookings
			  WHERE listing_id = ?
			    AND renter_id = ?
			    AND status IN ('completed', 'paid')`

	err := repo.dbConn.Get(&count, query, listingID, renterID)
	if err != nil {
		return false, fmt.Errorf("checking completed bookings for listing %s : %w", listingID, err)
	}

	return count > 0, nil
}
