package rentall

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oamouyal-jpg/rentall/media"
)

// uploadMedia stores a listing image and returns the URL to reference it
// from listing records.
func (server *Server) uploadMedia(c *gin.Context) {
	if server.Media == nil {
		detail(c, http.StatusInternalServerError, "Media storage not configured")
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		detail(c, http.StatusBadRequest, "No file provided")
		return
	}
	file, err := header.Open()
	if err != nil {
		server.internalError(c, err)
		return
	}
	defer file.Close()

	stored, err := server.Media.Save(file)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrTooLarge):
			detail(c, http.StatusBadRequest, "File too large")
		case errors.Is(err, media.ErrUnsupportedType):
			detail(c, http.StatusBadRequest, "Unsupported file type")
		default:
			server.internalError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":          "/api/media/" + stored.Name,
		"filename":     stored.Name,
		"content_type": stored.ContentType,
	})
}

// getMedia serves a stored upload by name.
func (server *Server) getMedia(c *gin.Context) {
	if server.Media == nil {
		detail(c, http.StatusNotFound, "File not found")
		return
	}
	path, err := server.Media.Path(c.Param("name"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			detail(c, http.StatusNotFound, "File not found")
			return
		}
		server.internalError(c, err)
		return
	}
	c.File(path)
}
