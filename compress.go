package rentall

import (
	"compress/gzip"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Compress negotiates a response encoding from the Accept-Encoding header
// and compresses API responses. Brotli is preferred over gzip. Media
// downloads are passed through untouched, image formats carry their own
// compression.
func Compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/media/") {
			c.Next()
			return
		}
		switch negotiateEncoding(c.GetHeader("Accept-Encoding")) {
		case "br":
			serveCompressed(c, "br", brotli.NewWriter(c.Writer))
		case "gzip":
			serveCompressed(c, "gzip", gzip.NewWriter(c.Writer))
		default:
			c.Next()
		}
	}
}

// negotiateEncoding picks the first supported encoding from an
// Accept-Encoding header value. Quality values are not weighed, a listed
// encoding is treated as acceptable.
func negotiateEncoding(acceptEncoding string) string {
	supportsGzip := false
	for _, part := range strings.Split(acceptEncoding, ",") {
		encoding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		switch strings.TrimSpace(encoding) {
		case "br":
			return "br"
		case "gzip":
			supportsGzip = true
		}
	}
	if supportsGzip {
		return "gzip"
	}
	return ""
}

// serveCompressed runs the rest of the chain with the response writer
// swapped for one that routes the body through the compressor. The
// compressor is closed after the handler returns so the trailer is flushed.
func serveCompressed(c *gin.Context, encoding string, compressor io.WriteCloser) {
	c.Header("Content-Encoding", encoding)
	c.Header("Vary", "Accept-Encoding")
	original := c.Writer
	c.Writer = &compressWriter{ResponseWriter: original, writer: compressor}
	defer func() {
		compressor.Close()
		c.Writer = original
	}()
	c.Next()
}

// compressWriter routes body writes through the compressor while headers and
// status keep going to the wrapped gin writer.
type compressWriter struct {
	gin.ResponseWriter
	writer io.Writer
}

func (w *compressWriter) Write(data []byte) (int, error) {
	return w.writer.Write(data)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.writer.Write([]byte(s))
}

func (w *compressWriter) WriteHeader(code int) {
	// The compressed length isn't known up front
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}
