package api

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// handleUpload stores an attachment and returns the URL a message can
// reference as its fileURL. Files are renamed to a fresh id; the original
// name survives only as the extension.
func (a *API) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	name := uuid.NewString() + filepath.Ext(file.Filename)
	dst := filepath.Join(a.uploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Error().Err(err).Str("file", name).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"fileURL": "/files/" + name})
}
