package db

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oamouyal-jpg/rentall/domain"
)

func testReview(t *testing.T, repo *Repository, listingID uuid.UUID, reviewer *domain.User, rating int, comment string) *domain.Review {
	t.Helper()

	review := &domain.Review{
		ID:         mustUUID(t),
		ListingID:  listingID,
		ReviewerID: reviewer.ID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}

	err := repo.CreateReview(review)
	if err != nil {
		t.Fatalf("inserting review: %v", err)
	}
	return review
}

func TestReviewRepo_CreateReview(t *testing.T) {
	t.Run("should insert a review and list it with reviewer fields joined", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		owner := testUser(t, repo, "noa@example.com", "Noa Peretz")
		reviewer := testUser(t, repo, "dan@example.com", "Dan Levi")
		listing := testListing(t, repo, owner)

		want := testReview(t, repo, listing.ID, reviewer, 5, "Sharp blade, fair owner")

		got, err := repo.GetListingReviews(listing.ID, 0)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		if len(got) != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%d", len(got))
		}
		if got[0].ID != want.ID {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", want.ID, got[0].ID)
		}
		if got[0].ReviewerName != reviewer.Name {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", reviewer.Name, got[0].ReviewerName)
		}
		if got[0].Rating != 5 {
			t.Fatalf("\nwanted:\n5\ngot:\n%d", got[0].Rating)
		}
		if got[0].Comment != want.Comment {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", want.Comment, got[0].Comment)
		}
	})

	t.Run("should return ErrDuplicateReview when the reviewer already reviewed the listing", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		owner := testUser(t, repo, "noa@example.com", "Noa Peretz")
		reviewer := testUser(t, repo, "dan@example.com", "Dan Levi")
		listing := testListing(t, repo, owner)

		testReview(t, repo, listing.ID, reviewer, 5, "Sharp blade, fair owner")

		duplicate := &domain.Review{
			ID:         mustUUID(t),
			ListingID:  listing.ID,
			ReviewerID: reviewer.ID,
			Rating:     1,
			Comment:    "Changed my mind",
			CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
		}

		err := repo.CreateReview(duplicate)
		if !errors.Is(err, ErrDuplicateReview) {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", ErrDuplicateReview, err)
		}
	})
}

func TestReviewRepo_HasReviewed(t *testing.T) {
	t.Run("should report whether the user reviewed the listing", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		owner := testUser(t, repo, "noa@example.com", "Noa Peretz")
		reviewer := testUser(t, repo, "dan@example.com", "Dan Levi")
		other := testUser(t, repo, "maya@example.com", "Maya Cohen")
		listing := testListing(t, repo, owner)

		testReview(t, repo, listing.ID, reviewer, 4, "Did the job")

		reviewed, err := repo.HasReviewed(listing.ID, reviewer.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if !reviewed {
			t.Fatalf("\nwanted:\ntrue\ngot:\nfalse")
		}

		reviewed, err = repo.HasReviewed(listing.ID, other.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if reviewed {
			t.Fatalf("\nwanted:\nfalse\ngot:\ntrue")
		}
	})
}

func TestReviewRepo_GetRatingSummary(t *testing.T) {
	t.Run("should return zero values for an unreviewed listing", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		owner := testUser(t, repo, "noa@example.com", "Noa Peretz")
		listing := testListing(t, repo, owner)

		avg, count, err := repo.GetRatingSummary(listing.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if avg != 0 || count != 0 {
			t.Fatalf("\nwanted:\n0 and 0\ngot:\n%v and %d", avg, count)
		}
	})

	t.Run("should average the ratings", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		owner := testUser(t, repo, "noa@example.com", "Noa Peretz")
		dan := testUser(t, repo, "dan@example.com", "Dan Levi")
		maya := testUser(t, repo, "maya@example.com", "Maya Cohen")
		listing := testListing(t, repo, owner)

		testReview(t, repo, listing.ID, dan, 4, "Did the job")
		testReview(t, repo, listing.ID, maya, 5, "Would rent again")

		avg, count, err := repo.GetRatingSummary(listing.ID)
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		if avg != 4.5 {
			t.Fatalf("\nwanted:\n4.5\ngot:\n%v", avg)
		}
		if count != 2 {
			t.Fatalf("\nwanted:\n2\ngot:\n%d", count)
		}
	})
}
