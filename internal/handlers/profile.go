package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clovisbarbosajr/navarro-connect/internal/blob"
	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
)

// ProfileHandler serves the user directory.
type ProfileHandler struct {
	profileRepo repositories.ProfileRepository
	blobStore   blob.Store
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profileRepo repositories.ProfileRepository, blobStore blob.Store) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo, blobStore: blobStore}
}

// ListProfiles returns the contact list: every other user ordered by display
// name, optionally filtered by department.
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	userID := c.GetString("userID")
	profiles, err := h.profileRepo.List(c.Request.Context(), userID, c.Query("department"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load directory"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// Me returns the caller's own profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	profile, err := h.profileRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMe applies user-mutable profile fields.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID := c.GetString("userID")

	var req models.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileRepo.Update(c.Request.Context(), userID, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not update profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadAvatar stores a new avatar image and points the profile at it.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetString("userID")

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

	profile, err := h.profileRepo.Update(c.Request.Context(), userID, models.ProfileUpdate{AvatarURL: &url})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update avatar"})
		return
	}
	c.JSON(http.StatusOK, profile)
}
