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

var _ domain.ListingRepository = (*Repository)(nil)

var (
	// ErrListingNotFound is returned when no listing exists for the given ID.
	ErrListingNotFound = errors.New("listing not found")
)

// listingColumns is the select list shared by every listing query. The owner
// name and avatar are joined from the users table instead of being
// denormalized onto the listing row.
const listingColumns = `l.id, l.owner_id, l.title, l.description, l.category,
	l.price_per_hour, l.price_per_day, l.price_per_week,
	l.min_rental_hours, l.min_rental_days,
	l.surge_enabled, l.surge_percentage, l.surge_weekends, l.surge_dates,
	l.discount_weekly, l.discount_monthly, l.discount_quarterly,
	l.location, l.latitude, l.longitude, l.images,
	l.avg_rating, l.review_count, l.is_available, l.created_at,
	u.name AS owner_name, u.avatar_url AS owner_avatar`

// dbListing represents a listing as stored in the database, together with
// the joined owner display fields.
type dbListing struct {
	ID                uuid.UUID       `db:"id"`
	OwnerID           uuid.UUID       `db:"owner_id"`
	OwnerName         string          `db:"owner_name"`
	OwnerAvatar       sql.NullString  `db:"owner_avatar"`
	Title             string          `db:"title"`
	Description       string          `db:"description"`
	Category          string          `db:"category"`
	PricePerHour      sql.NullFloat64 `db:"price_per_hour"`
	PricePerDay       sql.NullFloat64 `db:"price_per_day"`
	PricePerWeek      sql.NullFloat64 `db:"price_per_week"`
	MinRentalHours    int             `db:"min_rental_hours"`
	MinRentalDays     int             `db:"min_rental_days"`
	SurgeEnabled      bool            `db:"surge_enabled"`
	SurgePercentage   float64         `db:"surge_percentage"`
	SurgeWeekends     bool            `db:"surge_weekends"`
	SurgeDates        StringList      `db:"surge_dates"`
	DiscountWeekly    float64         `db:"discount_weekly"`
	DiscountMonthly   float64         `db:"discount_monthly"`
	DiscountQuarterly float64         `db:"discount_quarterly"`
	Location          string          `db:"location"`
	Latitude          float64         `db:"latitude"`
	Longitude         float64         `db:"longitude"`
	Images            StringList      `db:"images"`
	AvgRating         float64         `db:"avg_rating"`
	ReviewCount       int             `db:"review_count"`
	IsAvailable       bool            `db:"is_available"`
	CreatedAt         time.Time       `db:"created_at"`
}

// fromDomainListing converts a domain.Listing into a dbListing for database writes.
// The joined owner fields are not part of the listing row and are left empty.
func fromDomainListing(listing *domain.Listing) *dbListing {
	return &dbListing{
		ID:                listing.ID,
		OwnerID:           listing.OwnerID,
		Title:             listing.Title,
		Description:       listing.Description,
		Category:          listing.Category,
		PricePerHour:      nullFloat(listing.PricePerHour),
		PricePerDay:       nullFloat(listing.PricePerDay),
		PricePerWeek:      nullFloat(listing.PricePerWeek),
		MinRentalHours:    listing.MinRentalHours,
		MinRentalDays:     listing.MinRentalDays,
		SurgeEnabled:      listing.SurgeEnabled,
		SurgePercentage:   listing.SurgePercentage,
		SurgeWeekends:     listing.SurgeWeekends,
		SurgeDates:        StringList(listing.SurgeDates),
		DiscountWeekly:    listing.DiscountWeekly,
		DiscountMonthly:   listing.DiscountMonthly,
		DiscountQuarterly: listing.DiscountQuarterly,
		Location:          listing.Location,
		Latitude:          listing.Latitude,
		Longitude:         listing.Longitude,
		Images:            StringList(listing.Images),
		AvgRating:         listing.AvgRating,
		ReviewCount:       listing.ReviewCount,
		IsAvailable:       listing.IsAvailable,
		CreatedAt:         listing.CreatedAt,
	}
}

// toDomainListing converts a dbListing into a domain.Listing.
func toDomainListing(dbListing *dbListing) *domain.Listing {
	return &domain.Listing{
		ID:                dbListing.ID,
		OwnerID:           dbListing.OwnerID,
		OwnerName:         dbListing.OwnerName,
		OwnerAvatar:       stringPtr(dbListing.OwnerAvatar),
		Title:             dbListing.Title,
		Description:       dbListing.Description,
		Category:          dbListing.Category,
		PricePerHour:      floatPtr(dbListing.PricePerHour),
		PricePerDay:       floatPtr(dbListing.PricePerDay),
		PricePerWeek:      floatPtr(dbListing.PricePerWeek),
		MinRentalHours:    dbListing.MinRentalHours,
		MinRentalDays:     dbListing.MinRentalDays,
		SurgeEnabled:      dbListing.SurgeEnabled,
		SurgePercentage:   dbListing.SurgePercentage,
		SurgeWeekends:     dbListing.SurgeWeekends,
		SurgeDates:        []string(dbListing.SurgeDates),
		DiscountWeekly:    dbListing.DiscountWeekly,
		DiscountMonthly:   dbListing.DiscountMonthly,
		DiscountQuarterly: dbListing.DiscountQuarterly,
		Location:          dbListing.Location,
		Latitude:          dbListing.Latitude,
		Longitude:         dbListing.Longitude,
		Images:            []string(dbListing.Images),
		AvgRating:         dbListing.AvgRating,
		ReviewCount:       dbListing.ReviewCount,
		IsAvailable:       dbListing.IsAvailable,
		CreatedAt:         dbListing.CreatedAt,
	}
}

// toDomainListings converts a slice of database rows.
func toDomainListings(dbListings []*dbListing) []*domain.Listing {
	listings := make([]*domain.Listing, len(dbListings))
	for i, dbListing := range dbListings {
		listings[i] = toDomainListing(dbListing)
	}
	return listings
}

// CreateListing inserts a new domain.Listing into the database.
func (repo *Repository) CreateListing(listing *domain.Listing) error {
	dbListing := fromDomainListing(listing)
	query := `INSERT INTO listings(id, owner_id, title, description, category,
				price_per_hour, price_per_day, price_per_week,
				min_rental_hours, min_rental_days,
				surge_enabled, surge_percentage, surge_weekends, surge_dates,
				discount_weekly, discount_monthly, discount_quarterly,
				location, latitude, longitude, images,
				avg_rating, review_count, is_available, created_at)
			  VALUES(:id, :owner_id, :title, :description, :category,
				:price_per_hour, :price_per_day, :price_per_week,
				:min_rental_hours, :min_rental_days,
				:surge_enabled, :surge_percentage, :surge_weekends, :surge_dates,
				:discount_weekly, :discount_monthly, :discount_quarterly,
				:location, :latitude, :longitude, :images,
				:avg_rating, :review_count, :is_available, :created_at)`
	_, err := repo.dbConn.NamedExec(query, dbListing)
	if err != nil {
		return fmt.Errorf("inserting listing %s : %w", listing.ID, err)
	}
	return nil
}

// GetListing retrieves the listing with the given ID, owner fields included.
func (repo *Repository) GetListing(id uuid.UUID) (*domain.Listing, error) {
	var dbListing dbListing
	query := `SELECT ` + listingColumns + `
			  FROM listings l
			  JOIN users u ON u.id = l.owner_id
			  WHERE l.id = ?`

	err := repo.dbConn.Get(&dbListing, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("getting listing with id %s : %w", id, err)
	}

	return toDomainListing(&dbListing), nil
}

// GetListings retrieves listings matching the filter, newest first.
func (repo *Repository) GetListings(filter domain.ListingFilter) ([]*domain.Listing, error) {
	query := `SELECT ` + listingColumns + `
			  FROM listings l
			  JOIN users u ON u.id = l.owner_id
			  WHERE 1=1`
	args := make([]any, 0, 10)

	if filter.Category != "" {
		query += ` AND l.category = ?`
		args = append(args, filter.Category)
	}

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		query += ` AND (lower(l.title) LIKE ? OR lower(l.description) LIKE ?)`
		args = append(args, pattern, pattern)
	}

	if filter.MinPrice != nil {
		query += ` AND l.price_per_day >= ?`
		args = append(args, *filter.MinPrice)
	}

	if filter.MaxPrice != nil {
		query += ` AND l.price_per_day <= ?`
		args = append(args, *filter.MaxPrice)
	}

	if filter.MinLat != nil && filter.MaxLat != nil && filter.MinLng != nil && filter.MaxLng != nil {
		query += ` AND l.latitude BETWEEN ? AND ? AND l.longitude BETWEEN ? AND ?`
		args = append(args, *filter.MinLat, *filter.MaxLat, *filter.MinLng, *filter.MaxLng)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` ORDER BY l.created_at DESC LIMIT ?`
	args = append(args, limit)

	var dbListings []*dbListing
	err := repo.dbConn.Select(&dbListings, query, args...)
	if err != nil {
		return nil, fmt.Errorf("retrieving listings : %w", err)
	}

	return toDomainListings(dbListings), nil
}

// GetFeaturedListings retrieves available listings ordered by rating, best first.
func (repo *Repository) GetFeaturedListings(limit int) ([]*domain.Listing, error) {
	if limit <= 0 {
		limit = 8
	}

	var dbListings []*dbListing
	query := `SELECT ` + listingColumns + `
			  FROM listings l
			  JOIN users u ON u.id = l.owner_id
			  WHERE l.is_available = 1
			  ORDER BY l.avg_rating DESC, l.review_count DESC
			  LIMIT ?`

	err := repo.dbConn.Select(&dbListings, query, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving featured listings : %w", err)
	}

	return toDomainListings(dbListings), nil
}

// GetListingsByOwner retrieves the listings created by the given user.
func (repo *Repository) GetListingsByOwner(ownerID uuid.UUID, limit int) ([]*domain.Listing, error) {
	if limit <= 0 {
		limit = 100
	}

	var dbListings []*dbListing
	query := `SELECT ` + listingColumns + `
			  FROM listings l
			  JOIN users u ON u.id = l.owner_id
			  WHERE l.owner_id = ?
			  ORDER BY l.created_at DESC
			  LIMIT ?`

	err := repo.dbConn.Select(&dbListings, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("retrieving listings for owner %s : %w", ownerID, err)
	}

	return toDomainListings(dbListings), nil
}

// UpdateListing applies the non-nil fields of the update to the stored
// listing and returns the updated listing.
func (repo *Repository) UpdateListing(id uuid.UUID, update domain.ListingUpdate) (*domain.Listing, error) {
	listing, err := repo.GetListing(id)
	if err != nil {
		return nil, err
	}

	applyListingUpdate(listing, update)

	dbListing := fromDomainListing(listing)
	query := `UPDATE listings SET
				title = :title,
				description = :description,
				category = :category,
				price_per_hour = :price_per_hour,
				price_per_day = :price_per_day,
				price_per_week = :price_per_week,
				min_rental_hours = :min_rental_hours,
				min_rental_days = :min_rental_days,
				surge_enabled = :surge_enabled,
				surge_percentage = :surge_percentage,
				surge_weekends = :surge_weekends,
				surge_dates = :surge_dates,
				discount_weekly = :discount_weekly,
				discount_monthly = :discount_monthly,
				discount_quarterly = :discount_quarterly,
				location = :location,
				latitude = :latitude,
				longitude = :longitude,
				images = :images,
				is_available = :is_available
			  WHERE id = :id`
	_, err = repo.dbConn.NamedExec(query, dbListing)
	if err != nil {
		return nil, fmt.Errorf("updating listing %s : %w", id, err)
	}

	return repo.GetListing(id)
}

// applyListingUpdate copies the non-nil update fields onto the listing.
func applyListingUpdate(listing *domain.Listing, update domain.ListingUpdate) {
	if update.Title != nil {
		listing.Title = *update.Title
	}
	if update.Description != nil {
		listing.Description = *update.Description
	}
	if update.Category != nil {
		listing.Category = *update.Category
	}
	if update.PricePerHour != nil {
		listing.PricePerHour = update.PricePerHour
	}
	if update.PricePerDay != nil {
		listing.PricePerDay = update.PricePerDay
	}
	if update.PricePerWeek != nil {
		listing.PricePerWeek = update.PricePerWeek
	}
	if update.MinRentalHours != nil {
		listing.MinRentalHours = *update.MinRentalHours
	}
	if update.MinRentalDays != nil {
		listing.MinRentalDays = *update.MinRentalDays
	}
	if update.SurgeEnabled != nil {
		listing.SurgeEnabled = *update.SurgeEnabled
	}
	if update.SurgePercentage != nil {
		listing.SurgePercentage = *update.SurgePercentage
	}
	if update.SurgeWeekends != nil {
		listing.SurgeWeekends = *update.SurgeWeekends
	}
	if update.SurgeDates != nil {
		listing.SurgeDates = *update.SurgeDates
	}
	if update.DiscountWeekly != nil {
		listing.DiscountWeekly = *update.DiscountWeekly
	}
	if update.DiscountMonthly != nil {
		listing.DiscountMonthly = *update.DiscountMonthly
	}
	if update.DiscountQuarterly != nil {
		listing.DiscountQuarterly = *update.DiscountQuarterly
	}
	if update.Location != nil {
		listing.Location = *update.Location
	}
	if update.Latitude != nil {
		listing.Latitude = *update.Latitude
	}
	if update.Longitude != nil {
		listing.Longitude = *update.Longitude
	}
	if update.Images != nil {
		listing.Images = *update.Images
	}
	if update.IsAvailable != nil {
		listing.IsAvailable = *update.IsAvailable
	}
}

// DeleteListing removes the listing with the given ID.
func (repo *Repository) DeleteListing(id uuid.UUID) error {
	query := `DELETE FROM listings WHERE id = ?`

	result, err := repo.dbConn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("deleting listing %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deletion rows affected for %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return ErrListingNotFound
	}

	return nil
}

// UpdateListingRating stores the recomputed review aggregate on the listing row.
func (repo *Repository) UpdateListingRating(id uuid.UUID, avgRating float64, reviewCount int) error {
	query := `UPDATE listings SET avg_rating = ?, review_count = ? WHERE id = ?`

	result, err := repo.dbConn.Exec(query, avgRating, reviewCount, id)
	if err != nil {
		return fmt.Errorf("updating rating for listing %s : %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rating update rows affected for %s : %w", id, err)
	}

	if rowsAffected == 0 {
		return ErrListingNotFound
	}

	return nil
}
