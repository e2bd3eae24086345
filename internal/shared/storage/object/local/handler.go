package local

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/shared/server/respond"
	"notesum-backend/internal/shared/storage/object"
)

// Handler serves GET /api/v1/blobs/*key for URLs produced by SignedURL.
func (s *Store) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if !s.Verify(key, c.Query("exp"), c.Query("sig")) {
			respond.Error(c, http.StatusForbidden, "FORBIDDEN", "Invalid or expired link", nil)
			return
		}
		rc, err := s.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "NOT_FOUND", "Blob not found", nil)
				return
			}
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not open blob", nil)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Status(http.StatusOK)
		c.Header("Content-Type", contentType)
		_, _ = io.Copy(c.Writer, rc)
	}
}
