package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/oamouyal-jpg/rentall"
	"github.com/oamouyal-jpg/rentall/auth"
	"github.com/oamouyal-jpg/rentall/db"
	"github.com/oamouyal-jpg/rentall/domain"
)

var seedFile string

// seedCmd loads demo data into the database
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users and listings from a YAML fixture",
	Long: `Loads a YAML fixture of users and listings into the database. Seeding
is idempotent: users are matched by email and listings by owner and title, so
running it twice leaves the data unchanged.

Example fixture:

  users:
    - email: noa@example.com
      name: Noa Peretz
      password: demo1234
      location: Tel Aviv
  listings:
    - owner: noa@example.com
      title: Makita impact driver
      description: 18V impact driver with two batteries
      category: tools
      price_per_day: 18
      location: Tel Aviv
      latitude: 32.0853
      longitude: 34.7818`,
	RunE: runSeed,
}

type seedUser struct {
	Email    string  `yaml:"email"`
	Name     string  `yaml:"name"`
	Password string  `yaml:"password"`
	Location *string `yaml:"location"`
	Bio      *string `yaml:"bio"`
}

type seedListing struct {
	Owner             string   `yaml:"owner"`
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	Category          string   `yaml:"category"`
	PricePerHour      *float64 `yaml:"price_per_hour"`
	PricePerDay       *float64 `yaml:"price_per_day"`
	PricePerWeek      *float64 `yaml:"price_per_week"`
	MinRentalHours    int      `yaml:"min_rental_hours"`
	MinRentalDays     int      `yaml:"min_rental_days"`
	SurgeEnabled      bool     `yaml:"surge_enabled"`
	SurgePercentage   float64  `yaml:"surge_percentage"`
	SurgeWeekends     bool     `yaml:"surge_weekends"`
	SurgeDates        []string `yaml:"surge_dates"`
	DiscountWeekly    float64  `yaml:"discount_weekly"`
	DiscountMonthly   float64  `yaml:"discount_monthly"`
	DiscountQuarterly float64  `yaml:"discount_quarterly"`
	Location          string   `yaml:"location"`
	Latitude          float64  `yaml:"latitude"`
	Longitude         float64  `yaml:"longitude"`
	Images            []string `yaml:"images"`
}

type seedFixture struct {
	Users    []seedUser    `yaml:"users"`
	Listings []seedListing `yaml:"listings"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("reading fixture %s: %w", seedFile, err)
	}
	var fixture seedFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", seedFile, err)
	}

	server, err := openServer()
	if err != nil {
		return err
	}
	defer server.Repo.Close()

	userIDs := make(map[string]uuid.UUID, len(fixture.Users))
	for _, seed := range fixture.Users {
		existing, err := server.Repo.GetUserByEmail(seed.Email)
		if err == nil {
			userIDs[seed.Email] = existing.ID
			logger.Debug("user already seeded", zap.String("email", seed.Email))
			continue
		}
		if !errors.Is(err, db.ErrUserNotFound) {
			return err
		}

		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", seed.Email, err)
		}
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		user := &domain.User{
			ID:           id,
			Email:        seed.Email,
			Name:         seed.Name,
			PasswordHash: hash,
			Location:     seed.Location,
			Bio:          seed.Bio,
			CreatedAt:    time.Now().UTC(),
		}
		if err := server.Repo.CreateUser(user); err != nil {
			return err
		}
		userIDs[seed.Email] = id
		logger.Info("seeded user", zap.String("email", seed.Email))
	}

	for _, seed := range fixture.Listings {
		ownerID, ok := userIDs[seed.Owner]
		if !ok {
			owner, err := server.Repo.GetUserByEmail(seed.Owner)
			if err != nil {
				return fmt.Errorf("listing %q: owner %s not found", seed.Title, seed.Owner)
			}
			ownerID = owner.ID
		}
		if !rentall.ValidCategory(seed.Category) {
			return fmt.Errorf("listing %q: unknown category %q", seed.Title, seed.Category)
		}
		if seed.PricePerHour == nil && seed.PricePerDay == nil && seed.PricePerWeek == nil {
			return fmt.Errorf("listing %q: at least one price is required", seed.Title)
		}

		owned, err := server.Repo.GetListingsByOwner(ownerID, 100)
		if err != nil {
			return err
		}
		seeded := false
		for _, listing := range owned {
			if listing.Title == seed.Title {
				seeded = true
				break
			}
		}
		if seeded {
			logger.Debug("listing already seeded", zap.String("title", seed.Title))
			continue
		}

		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		minHours := seed.MinRentalHours
		if minHours < 1 {
			minHours = 1
		}
		minDays := seed.MinRentalDays
		if minDays < 1 {
			minDays = 1
		}
		listing := &domain.Listing{
			ID:                id,
			OwnerID:           ownerID,
			Title:             seed.Title,
			Description:       seed.Description,
			Category:          seed.Category,
			PricePerHour:      seed.PricePerHour,
			PricePerDay:       seed.PricePerDay,
			PricePerWeek:      seed.PricePerWeek,
			MinRentalHours:    minHours,
			MinRentalDays:     minDays,
			SurgeEnabled:      seed.SurgeEnabled,
			SurgePercentage:   seed.SurgePercentage,
			SurgeWeekends:     seed.SurgeWeekends,
			SurgeDates:        seed.SurgeDates,
			DiscountWeekly:    seed.DiscountWeekly,
			DiscountMonthly:   seed.DiscountMonthly,
			DiscountQuarterly: seed.DiscountQuarterly,
			Location:          seed.Location,
			Latitude:          seed.Latitude,
			Longitude:         seed.Longitude,
			Images:            seed.Images,
			IsAvailable:       true,
			CreatedAt:         time.Now().UTC(),
		}
		if err := server.Repo.CreateListing(listing); err != nil {
			return err
		}
		logger.Info("seeded listing", zap.String("title", seed.Title), zap.String("owner", seed.Owner))
	}

	return nil
}
