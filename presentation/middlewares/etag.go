package middlewares

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ETagMiddleware tags successful JSON GET responses with a content hash and answers a matching
// If-None-Match with 304 and no body.
func ETagMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		writer := &bufferedWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
			status:         http.StatusOK,
		}
		c.Writer = writer

		c.Next()

		c.Writer = writer.ResponseWriter
		if !writer.isETaggable() {
			writer.flush()
			return
		}

		etag := generateETag(writer.body.Bytes())
		c.Header("ETag", "\""+etag+"\"")

		if matchesETag(c.GetHeader("If-None-Match"), etag) {
			writer.ResponseWriter.WriteHeader(http.StatusNotModified)
			return
		}
		writer.flush()
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *bufferedWriter) WriteHeader(code int) {
	w.status = code
}

func (w *bufferedWriter) WriteHeaderNow() {}

func (w *bufferedWriter) Status() int {
	return w.status
}

func (w *bufferedWriter) Written() bool {
	return w.body.Len() > 0
}

func (w *bufferedWriter) Size() int {
	return w.body.Len()
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *bufferedWriter) flush() {
	w.ResponseWriter.WriteHeader(w.status)
	if w.body.Len() > 0 {
		_, _ = w.ResponseWriter.Write(w.body.Bytes())
	}
}

func (w *bufferedWriter) isETaggable() bool {
	contentType := w.Header().Get("Content-Type")
	return w.status == http.StatusOK && strings.Contains(strings.ToLower(contentType), "json")
}

func generateETag(content []byte) string {
	hash := sha512.Sum512(content)
	return hex.EncodeToString(hash[:])
}

func matchesETag(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if strings.Trim(candidate, "\"") == etag {
			return true
		}
	}
	return false
}
