package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clovisbarbosajr/navarro-connect/internal/blob"
)

// UploadHandler stores message attachments.
type UploadHandler struct {
	blobStore blob.Store
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(blobStore blob.Store) *UploadHandler {
	return &UploadHandler{blobStore: blobStore}
}

// UploadAttachment stores a file and returns the reference the client embeds
// in its next message. Files over the size cap are rejected before anything
// is written.
func (h *UploadHandler) UploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	defer file.Close()

	url, err := h.blobStore.Save(c.Request.Context(), header.Filename, file, header.Size)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	mime := header.Header.Get("Content-Type")
	c.JSON(http.StatusCreated, gin.H{
		"url":  url,
		"name": header.Filename,
		"mime": mime,
	})
}
