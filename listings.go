package rentall

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oamouyal-jpg/rentall/db"
	"github.com/oamouyal-jpg/rentall/domain"
	"github.com/oamouyal-jpg/rentall/geo"
)

type listingRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description" binding:"required"`
	Category          string   `json:"category" binding:"required"`
	PricePerHour      *float64 `json:"price_per_hour"`
	PricePerDay       *float64 `json:"price_per_day"`
	PricePerWeek      *float64 `json:"price_per_week"`
	MinRentalHours    int      `json:"min_rental_hours"`
	MinRentalDays     int      `json:"min_rental_days"`
	SurgeEnabled      bool     `json:"surge_enabled"`
	SurgePercentage   float64  `json:"surge_percentage"`
	SurgeWeekends     bool     `json:"surge_weekends"`
	SurgeDates        []string `json:"surge_dates"`
	DiscountWeekly    float64  `json:"discount_weekly"`
	DiscountMonthly   float64  `json:"discount_monthly"`
	DiscountQuarterly float64  `json:"discount_quarterly"`
	Location          string   `json:"location" binding:"required"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	Images            []string `json:"images"`
}

type listingUpdateRequest struct {
	Title             *string   `json:"title"`
	Description       *string   `json:"description"`
	Category          *string   `json:"category"`
	PricePerHour      *float64  `json:"price_per_hour"`
	PricePerDay       *float64  `json:"price_per_day"`
	PricePerWeek      *float64  `json:"price_per_week"`
	MinRentalHours    *int      `json:"min_rental_hours"`
	MinRentalDays     *int      `json:"min_rental_days"`
	SurgeEnabled      *bool     `json:"surge_enabled"`
	SurgePercentage   *float64  `json:"surge_percentage"`
	SurgeWeekends     *bool     `json:"surge_weekends"`
	SurgeDates        *[]string `json:"surge_dates"`
	DiscountWeekly    *float64  `json:"discount_weekly"`
	DiscountMonthly   *float64  `json:"discount_monthly"`
	DiscountQuarterly *float64  `json:"discount_quarterly"`
	Location          *string   `json:"location"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	Images            *[]string `json:"images"`
	IsAvailable       *bool     `json:"is_available"`
}

// createListing publishes a new listing owned by the current user. At least
// one of the three rates must be set, otherwise no booking could ever price.
func (server *Server) createListing(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !ValidCategory(req.Category) {
		detail(c, http.StatusBadRequest, "Unknown category")
		return
	}
	if req.PricePerHour == nil && req.PricePerDay == nil && req.PricePerWeek == nil {
		detail(c, http.StatusBadRequest, "At least one price is required")
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		server.internalError(c, fmt.Errorf("generating listing id : %w", err))
		return
	}
	listing := &domain.Listing{
		ID:                id,
		OwnerID:           user.ID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		PricePerHour:      req.PricePerHour,
		PricePerDay:       req.PricePerDay,
		PricePerWeek:      req.PricePerWeek,
		MinRentalHours:    max(req.MinRentalHours, 1),
		MinRentalDays:     max(req.MinRentalDays, 1),
		SurgeEnabled:      req.SurgeEnabled,
		SurgePercentage:   req.SurgePercentage,
		SurgeWeekends:     req.SurgeWeekends,
		SurgeDates:        orEmpty(req.SurgeDates),
		DiscountWeekly:    req.DiscountWeekly,
		DiscountMonthly:   req.DiscountMonthly,
		DiscountQuarterly: req.DiscountQuarterly,
		Location:          req.Location,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Images:            orEmpty(req.Images),
		IsAvailable:       true,
		CreatedAt:         time.Now().UTC(),
	}
	if err := server.Repo.CreateListing(listing); err != nil {
		server.internalError(c, err)
		return
	}
	created, err := server.Repo.GetListing(listing.ID)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

// getListings searches the catalog. Category, text, price and radius filters
// combine, and the radius filter runs as a bounding-box query refined by a
// precise distance check.
func (server *Server) getListings(c *gin.Context) {
	filter := domain.ListingFilter{
		Category: c.Query("category"),
		Query:    c.Query("query"),
		Limit:    50,
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = min(limit, 100)
	}
	if minPrice, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		filter.MinPrice = &minPrice
	}
	if maxPrice, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		filter.MaxPrice = &maxPrice
	}

	var center *geo.Point
	radius := 50.0
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat == nil && errLng == nil {
		center = &geo.Point{Latitude: lat, Longitude: lng}
		if r, err := strconv.ParseFloat(c.Query("radius"), 64); err == nil && r > 0 {
			radius = r
		}
		box := geo.BoundingBox(*center, radius)
		filter.MinLat, filter.MaxLat = &box.MinLat, &box.MaxLat
		filter.MinLng, filter.MaxLng = &box.MinLng, &box.MaxLng
	}

	listings, err := server.Repo.GetListings(filter)
	if err != nil {
		server.internalError(c, err)
		return
	}
	if center != nil {
		inRange := make([]*domain.Listing, 0, len(listings))
		for _, listing := range listings {
			point := geo.Point{Latitude: listing.Latitude, Longitude: listing.Longitude}
			if geo.DistanceKm(*center, point) <= radius {
				inRange = append(inRange, listing)
			}
		}
		listings = inRange
	}
	c.JSON(http.StatusOK, orEmpty(listings))
}

// getFeaturedListings returns the best-rated available listings for the
// landing page.
func (server *Server) getFeaturedListings(c *gin.Context) {
	listings, err := server.Repo.GetFeaturedListings(8)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(listings))
}

func (server *Server) getMyListings(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	listings, err := server.Repo.GetListingsByOwner(user.ID, 100)
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(listings))
}

func (server *Server) getListing(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusNotFound, "Listing not found")
		return
	}
	listing, err := server.Repo.GetListing(id)
	if err != nil {
		if errors.Is(err, db.ErrListingNotFound) {
			detail(c, http.StatusNotFound, "Listing not found")
			return
		}
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// updateListing applies the supplied fields to a listing the current user
// owns. Absent fields are left untouched.
func (server *Server) updateListing(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusNotFound, "Listing not found")
		return
	}
	listing, err := server.Repo.GetListing(id)
	if err != nil {
		if errors.Is(err, db.ErrListingNotFound) {
			detail(c, http.StatusNotFound, "Listing not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if listing.OwnerID != user.ID {
		detail(c, http.StatusForbidden, "Not authorized")
		return
	}
	var req listingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Category != nil && !ValidCategory(*req.Category) {
		detail(c, http.StatusBadRequest, "Unknown category")
		return
	}
	updated, err := server.Repo.UpdateListing(id, domain.ListingUpdate{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		PricePerHour:      req.PricePerHour,
		PricePerDay:       req.PricePerDay,
		PricePerWeek:      req.PricePerWeek,
		MinRentalHours:    req.MinRentalHours,
		MinRentalDays:     req.MinRentalDays,
		SurgeEnabled:      req.SurgeEnabled,
		SurgePercentage:   req.SurgePercentage,
		SurgeWeekends:     req.SurgeWeekends,
		SurgeDates:        req.SurgeDates,
		DiscountWeekly:    req.DiscountWeekly,
		DiscountMonthly:   req.DiscountMonthly,
		DiscountQuarterly: req.DiscountQuarterly,
		Location:          req.Location,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Images:            req.Images,
		IsAvailable:       req.IsAvailable,
	})
	if err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (server *Server) deleteListing(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusNotFound, "Listing not found")
		return
	}
	listing, err := server.Repo.GetListing(id)
	if err != nil {
		if errors.Is(err, db.ErrListingNotFound) {
			detail(c, http.StatusNotFound, "Listing not found")
			return
		}
		server.internalError(c, err)
		return
	}
	if listing.OwnerID != user.ID {
		detail(c, http.StatusForbidden, "Not authorized")
		return
	}
	if err := server.Repo.DeleteListing(id); err != nil {
		server.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}
