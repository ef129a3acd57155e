package rentall

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestCreateListing(t *testing.T) {
	t.Run("should publish a listing with full pricing config", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		listing := createTestListing(t, server, token, map[string]any{
			"price_per_hour":   20.0,
			"price_per_week":   550.0,
			"min_rental_hours": 2,
			"surge_enabled":    true,
			"surge_percentage": 25.0,
			"surge_weekends":   true,
			"surge_dates":      []string{"2026-09-20"},
			"discount_weekly":  10.0,
			"images":           []string{"/api/media/driver.jpg"},
		})

		if listing["owner_name"] != "Noa Peretz" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "Noa Peretz", listing["owner_name"])
		}
		if listing["price_per_week"] != 550.0 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 550.0, listing["price_per_week"])
		}
		if listing["min_rental_hours"] != 2.0 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 2.0, listing["min_rental_hours"])
		}
		if listing["surge_enabled"] != true {
			t.Fatalf("\nwanted:\ntrue\ngot:\n%v", listing["surge_enabled"])
		}
		if listing["is_available"] != true {
			t.Fatalf("\nwanted:\ntrue\ngot:\n%v", listing["is_available"])
		}
		if listing["avg_rating"] != 0.0 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 0.0, listing["avg_rating"])
		}
	})

	t.Run("should require at least one rate", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPost, "/api/listings", map[string]any{
			"title":       "Free pallet",
			"description": "No pricing at all",
			"category":    "other",
			"location":    "Tel Aviv",
		}, token)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "At least one price is required" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "At least one price is required", got)
		}
	})

	t.Run("should reject unknown categories", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPost, "/api/listings", map[string]any{
			"title":         "Time machine",
			"description":   "Slightly used",
			"category":      "time-travel",
			"price_per_day": 1000.0,
			"location":      "Tel Aviv",
		}, token)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Unknown category" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Unknown category", got)
		}
	})

	t.Run("should require authentication", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodPost, "/api/listings", map[string]any{
			"title":         "Ladder",
			"description":   "Three meters",
			"category":      "tools",
			"price_per_day": 15.0,
			"location":      "Tel Aviv",
		}, "")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
	})
}

func TestGetListings(t *testing.T) {
	t.Run("should filter by category, text and price", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		createTestListing(t, server, token, nil)
		createTestListing(t, server, token, map[string]any{
			"title":         "Wedding marquee",
			"description":   "Seats 120 guests",
			"category":      "party",
			"price_per_day": 300.0,
		})

		recorder := doRequest(t, server, http.MethodGet, "/api/listings?category=tools", nil, "")
		var listings []map[string]any
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 || listings[0]["category"] != "tools" {
			t.Fatalf("\nwanted:\none tools listing\ngot:\n%v", listings)
		}

		recorder = doRequest(t, server, http.MethodGet, "/api/listings?query=marquee", nil, "")
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 || listings[0]["category"] != "party" {
			t.Fatalf("\nwanted:\nthe marquee listing\ngot:\n%v", listings)
		}

		recorder = doRequest(t, server, http.MethodGet, "/api/listings?max_price=150", nil, "")
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 || listings[0]["category"] != "tools" {
			t.Fatalf("\nwanted:\nonly the cheap listing\ngot:\n%v", listings)
		}

		recorder = doRequest(t, server, http.MethodGet, "/api/listings?min_price=150", nil, "")
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 || listings[0]["category"] != "party" {
			t.Fatalf("\nwanted:\nonly the expensive listing\ngot:\n%v", listings)
		}
	})

	t.Run("should filter by radius", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		telAviv := createTestListing(t, server, token, nil)
		createTestListing(t, server, token, map[string]any{
			"title":     "Haifa pressure washer",
			"latitude":  32.7940,
			"longitude": 34.9896,
			"location":  "Haifa",
		})

		recorder := doRequest(t, server, http.MethodGet, "/api/listings?lat=32.0853&lng=34.7818&radius=30", nil, "")
		var listings []map[string]any
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 {
			t.Fatalf("\nwanted:\none listing in range\ngot:\n%d", len(listings))
		}
		if listings[0]["id"] != telAviv["id"] {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", telAviv["id"], listings[0]["id"])
		}

		recorder = doRequest(t, server, http.MethodGet, "/api/listings?lat=32.0853&lng=34.7818&radius=150", nil, "")
		decodeBody(t, recorder, &listings)
		if len(listings) != 2 {
			t.Fatalf("\nwanted:\nboth listings in range\ngot:\n%d", len(listings))
		}
	})

	t.Run("should return an empty array when nothing matches", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodGet, "/api/listings?category=drones", nil, "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, recorder.Code)
		}
		if recorder.Body.String() != "[]" {
			t.Fatalf("\nwanted:\n[]\ngot:\n%q", recorder.Body.String())
		}
	})
}

func TestGetListing(t *testing.T) {
	t.Run("should return the listing with owner fields", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		created := createTestListing(t, server, token, nil)

		recorder := doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/listings/%v", created["id"]), nil, "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, recorder.Code)
		}
		var listing map[string]any
		decodeBody(t, recorder, &listing)
		if listing["owner_name"] != "Noa Peretz" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "Noa Peretz", listing["owner_name"])
		}
	})

	t.Run("should 404 for unknown and malformed ids", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		ghostID, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("creating uuid: %v", err)
		}

		recorder := doRequest(t, server, http.MethodGet, "/api/listings/"+ghostID.String(), nil, "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusNotFound, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Listing not found" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Listing not found", got)
		}

		recorder = doRequest(t, server, http.MethodGet, "/api/listings/not-a-uuid", nil, "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusNotFound, recorder.Code)
		}
	})
}

func TestFeaturedListings(t *testing.T) {
	t.Run("should only include available listings", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		available := createTestListing(t, server, token, nil)
		hidden := createTestListing(t, server, token, map[string]any{"title": "Hidden lift"})

		recorder := doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/listings/%v", hidden["id"]), map[string]any{
			"is_available": false,
		}, token)
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d (%s)", http.StatusOK, recorder.Code, recorder.Body.String())
		}

		recorder = doRequest(t, server, http.MethodGet, "/api/listings/featured", nil, "")
		var listings []map[string]any
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 {
			t.Fatalf("\nwanted:\none featured listing\ngot:\n%d", len(listings))
		}
		if listings[0]["id"] != available["id"] {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", available["id"], listings[0]["id"])
		}
	})
}

func TestMyListings(t *testing.T) {
	t.Run("should only return the caller's listings", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		noaToken, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		aviToken, _ := registerUser(t, server, "avi@example.com", "Avi Cohen")
		mine := createTestListing(t, server, noaToken, nil)
		createTestListing(t, server, aviToken, map[string]any{"title": "Avi's drone"})

		recorder := doRequest(t, server, http.MethodGet, "/api/listings/my", nil, noaToken)
		var listings []map[string]any
		decodeBody(t, recorder, &listings)
		if len(listings) != 1 {
			t.Fatalf("\nwanted:\none listing\ngot:\n%d", len(listings))
		}
		if listings[0]["id"] != mine["id"] {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", mine["id"], listings[0]["id"])
		}
	})
}

func TestUpdateListing(t *testing.T) {
	t.Run("should let the owner edit pricing", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		created := createTestListing(t, server, token, nil)

		recorder := doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/listings/%v", created["id"]), map[string]any{
			"price_per_day":    120.0,
			"surge_enabled":    true,
			"surge_percentage": 15.0,
		}, token)
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d (%s)", http.StatusOK, recorder.Code, recorder.Body.String())
		}
		var updated map[string]any
		decodeBody(t, recorder, &updated)
		if updated["price_per_day"] != 120.0 {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", 120.0, updated["price_per_day"])
		}
		if updated["surge_enabled"] != true {
			t.Fatalf("\nwanted:\ntrue\ngot:\n%v", updated["surge_enabled"])
		}
		if updated["title"] != created["title"] {
			t.Fatalf("\nwanted:\n%v\ngot:\n%v", created["title"], updated["title"])
		}
	})

	t.Run("should reject other users", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		noaToken, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		aviToken, _ := registerUser(t, server, "avi@example.com", "Avi Cohen")
		created := createTestListing(t, server, noaToken, nil)

		recorder := doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/listings/%v", created["id"]), map[string]any{
			"price_per_day": 1.0,
		}, aviToken)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusForbidden, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Not authorized" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Not authorized", got)
		}
	})

	t.Run("should validate the category", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		created := createTestListing(t, server, token, nil)

		recorder := doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/listings/%v", created["id"]), map[string]any{
			"category": "time-travel",
		}, token)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Unknown category" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Unknown category", got)
		}
	})
}

func TestDeleteListing(t *testing.T) {
	t.Run("should remove the listing", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		created := createTestListing(t, server, token, nil)

		recorder := doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/listings/%v", created["id"]), nil, token)
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, recorder.Code)
		}
		var resp map[string]string
		decodeBody(t, recorder, &resp)
		if resp["message"] != "Listing deleted" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Listing deleted", resp["message"])
		}

		recorder = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/listings/%v", created["id"]), nil, "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusNotFound, recorder.Code)
		}
	})

	t.Run("should reject other users", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		noaToken, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")
		aviToken, _ := registerUser(t, server, "avi@example.com", "Avi Cohen")
		created := createTestListing(t, server, noaToken, nil)

		recorder := doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/listings/%v", created["id"]), nil, aviToken)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusForbidden, recorder.Code)
		}
	})
}
