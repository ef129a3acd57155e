package rentall

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// pngBytes is a minimal payload carrying the PNG magic so type sniffing
// recognizes it as an image.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// uploadFile posts content as a multipart file upload.
func uploadFile(t *testing.T, server *Server, token string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/media/upload", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	server.Router.ServeHTTP(recorder, request)
	return recorder
}

func TestUploadMedia(t *testing.T) {
	t.Run("should store an image and serve it back", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := uploadFile(t, server, token, "driver.png", pngBytes)
		if recorder.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d (%s)", http.StatusOK, recorder.Code, recorder.Body.String())
		}
		var resp map[string]string
		decodeBody(t, recorder, &resp)
		if resp["content_type"] != "image/png" {
			t.Fatalf("\nwanted:\nimage/png\ngot:\n%q", resp["content_type"])
		}
		if !strings.HasSuffix(resp["filename"], ".png") {
			t.Fatalf("\nwanted:\na .png name\ngot:\n%q", resp["filename"])
		}
		if resp["url"] != "/api/media/"+resp["filename"] {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "/api/media/"+resp["filename"], resp["url"])
		}

		fetched := doRequest(t, server, http.MethodGet, resp["url"], nil, "")
		if fetched.Code != http.StatusOK {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusOK, fetched.Code)
		}
		if !bytes.Equal(fetched.Body.Bytes(), pngBytes) {
			t.Fatalf("\nwanted:\nthe uploaded bytes back\ngot:\n%d bytes", fetched.Body.Len())
		}
	})

	t.Run("should reject non-image uploads", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := uploadFile(t, server, token, "notes.txt", []byte("just some text"))
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "Unsupported file type" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "Unsupported file type", got)
		}
	})

	t.Run("should cap the upload size", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		huge := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 8<<20)...)
		recorder := uploadFile(t, server, token, "huge.png", huge)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "File too large" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "File too large", got)
		}
	})

	t.Run("should require a file field", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		token, _ := registerUser(t, server, "noa@example.com", "Noa Peretz")

		recorder := doRequest(t, server, http.MethodPost, "/api/media/upload", nil, token)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusBadRequest, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "No file provided" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "No file provided", got)
		}
	})

	t.Run("should require authentication", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := uploadFile(t, server, "", "driver.png", pngBytes)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusUnauthorized, recorder.Code)
		}
	})
}

func TestGetMedia(t *testing.T) {
	t.Run("should 404 unknown files", func(t *testing.T) {
		server, teardown := setupTestServer(t)
		defer teardown()

		recorder := doRequest(t, server, http.MethodGet, "/api/media/nope.png", nil, "")
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("\nwanted:\n%d\ngot:\n%d", http.StatusNotFound, recorder.Code)
		}
		if got := errorDetail(t, recorder); got != "File not found" {
			t.Fatalf("\nwanted:\n%q\ngot:\n%q", "File not found", got)
		}
	})
}
