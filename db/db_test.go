package db

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oamouyal-jpg/rentall/domain"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tempFile, err := os.CreateTemp(t.TempDir(), "test_*.db")
	if err != nil {
		t.Fatalf("os.CreateTemp() failed: %v", err)
	}
	tempFile.Close()

	dbConn, err := New(tempFile.Name())
	if err != nil {
		t.Fatalf("db.New() failed: %v", err)
	}

	repo := NewMarketRepo(dbConn)

	teardown := func() {
		repo.Close()
		os.Remove(tempFile.Name())
	}

	return repo, teardown
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("creating uuid: %v", err)
	}
	return id
}

func float64Ptr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func testUser(t *testing.T, repo *Repository, email string, name string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:           mustUUID(t),
		Email:        email,
		Name:         name,
		PasswordHash: "$2a$10$hash.placeholder.for.repo.tests",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	err := repo.CreateUser(user)
	if err != nil {
		t.Fatalf("inserting user: %v", err)
	}
	return user
}

func testListing(t *testing.T, repo *Repository, owner *domain.User) *domain.Listing {
	t.Helper()

	listing := &domain.Listing{
		ID:            mustUUID(t),
		OwnerID:       owner.ID,
		Title:         "Makita circular saw",
		Description:   "Comes with two spare blades and a carry case",
		Category:      "tools",
		PricePerDay:   float64Ptr(100),
		MinRentalDays: 1,
		SurgeDates:    []string{},
		Location:      "Tel Aviv",
		Latitude:      32.0853,
		Longitude:     34.7818,
		Images:        []string{},
		IsAvailable:   true,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}

	err := repo.CreateListing(listing)
	if err != nil {
		t.Fatalf("inserting listing: %v", err)
	}
	return listing
}

func testBooking(t *testing.T, repo *Repository, listing *domain.Listing, renter *domain.User, startDate string, endDate string, status domain.BookingStatus) *domain.Booking {
	t.Helper()

	booking := &domain.Booking{
		ID:           mustUUID(t),
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		RenterID:     renter.ID,
		OwnerID:      listing.OwnerID,
		StartDate:    startDate,
		EndDate:      endDate,
		DurationType: "daily",
		TotalPrice:   300,
		PlatformFee:  15,
		Status:       status,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	err := repo.CreateBooking(booking)
	if err != nil {
		t.Fatalf("inserting booking: %v", err)
	}
	return booking
}
