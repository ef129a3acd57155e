package rentall

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestRegister(t *testing.T) {
	t.Run("should create an account and sign the user in", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, user := registerUser(t, server, "noa@example.com", "Noa Peretz")
		if token == "" {
			t.Fatalf("\nwanted:\na token\ngot:\nempty string")
		}
		if user["email"] != "noa@example.com" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "noa@example.com", user["email"])
		}
		if _, leaked := user["password_hash"]; leaked {
			t.Fatalf("\nwanted:\nno password_hash in response\ngot:\n%v", user)
		}

		recorder := doRequest(t, server, http.MethodGet, "/api/auth/me", nil, token)
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, recorder.Code)
		}
		var me map[string]any
		decodeBody(t, recorder, &me)
		if me["name"] != "Noa Peretz" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "Noa Peretz", me["name"])
		}
	})

	t.Run("should reject a duplicate email", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPost, "/api/auth/register", map[string]any{
			"email":    "noa@example.com",
			"password": "another-pass",
			"name":     "Other Noa",
		}, "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Email already registered" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Email already registered", got)
		}
	})

	t.Run("should reject malformed payloads", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodPost, "/api/auth/register", map[string]any{
			"email":    "not-an-email",
			"password": "hunter2!",
			"name":     "Noa",
		}, "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}

		recorder = doRequest(t, server, http.MethodPost, "/api/auth/register", map[string]any{
			"email":    "noa@example.com",
			"password": "hunter2!",
		}, "")
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("should sign in with valid credentials", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "noa@example.com",
			"password": "hunter2!",
		}, "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d (%s)", http.StatusOK, recorder.Code, recorder.Body.String())
		}
		var resp struct {
			Token string `json:"token"`
		}
		decodeBody(t, recorder, &resp)

		me := doRequest(t, server, http.MethodGet, "/api/auth/me", nil, resp.Token)
		if me.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, me.Code)
		}
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "noa@example.com",
			"password": "wrong-password",
		}, "")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Invalid credentials" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Invalid credentials", got)
		}
	})

	t.Run("should reject an unknown email", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodPost, "/api/auth/login", map[string]any{
			"email":    "ghost@example.com",
			"password": "hunter2!",
		}, "")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Invalid credentials" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Invalid credentials", got)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("should reject requests without a token", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodGet, "/api/auth/me", nil, "")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Not authenticated" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Not authenticated", got)
		}
	})

	t.Run("should reject malformed authorization headers", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Token abcdef")
		recorder := httptest.NewRecorder()
		server.Router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Not authenticated" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Not authenticated", got)
		}
	})

	t.Run("should reject invalid tokens", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodGet, "/api/auth/me", nil, "definitely.not.a.token")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Invalid token" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Invalid token", got)
		}
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		userID, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("creating uuid: %v", err)
		}
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": userID.String(),
			"sub":     userID.String(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		raw, err := expired.SignedString([]byte(server.Config.TokenSecret))
		if err != nil {
			t.Fatalf("signing token: %v", err)
		}

		recorder := doRequest(t, server, http.MethodGet, "/api/auth/me", nil, raw)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Token expired" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Token expired", got)
		}
	})

	t.Run("should reject tokens for unknown users", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		ghostID, err := uuid.NewV7()
		if err != nil {
			t.Fatalf("creating uuid: %v", err)
		}
		token, err := server.Tokens.Issue(ghostID)
		if err != nil {
			t.Fatalf("issuing token: %v", err)
		}

		recorder := doRequest(t, server, http.MethodGet, "/api/auth/me", nil, token)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "User not found" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "User not found", got)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Run("should update only the provided fields", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPut, "/api/auth/profile", map[string]any{
			"bio":      "Surf gear collector",
			"location": "Haifa",
		}, token)
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d (%s)", http.StatusOK, recorder.Code, recorder.Body.String())
		}
		var updated map[string]any
		decodeBody(t, recorder, &updated)
		if updated["name"] != "Noa Peretz" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "Noa Peretz", updated["name"])
		}
		if updated["bio"] != "Surf gear collector" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "Surf gear collector", updated["bio"])
		}
		if updated["location"] != "Haifa" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%v", "Haifa", updated["location"])
		}
	})

	t.Run("should require authentication", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodPut, "/api/auth/profile", map[string]any{
			"bio": "anonymous",
		}, "")
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
	})
}
