package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clovisbarbosajr/navarro-connect/internal/middleware"
	"github.com/clovisbarbosajr/navarro-connect/internal/models"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
	"github.com/clovisbarbosajr/navarro-connect/internal/telemetry"
)

// AuthHandler manages sign-in sessions. Logging in flips the presence flag
// on; logging out flips it off and stamps last_seen_at. A client that dies
// without signing out keeps a stale online flag until its next session.
type AuthHandler struct {
	profileRepo   repositories.ProfileRepository
	jwtSecret     string
	jwtExpiration time.Duration
	audit         *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(profileRepo repositories.ProfileRepository, jwtSecret string, jwtExpiration time.Duration, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		profileRepo:   profileRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		audit:         audit,
	}
}

// Register creates a directory profile on first sign-in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		DisplayName string `json:"display_name" binding:"required"`
		Department  string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	profile, err := h.profileRepo.Create(c.Request.Context(), models.Profile{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		Department:   req.Department,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create profile"})
		return
	}

	h.emitAudit(c, "INFO", "profile registered")
	c.JSON(http.StatusCreated, profile)
}

// Login verifies credentials, flips the presence flag on and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong email or password"})
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, profile.ID, profile.IsAdmin, h.jwtExpiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	if err := h.profileRepo.SetOnline(c.Request.Context(), profile.ID, true); err != nil {
		// Presence is advisory; a failed flip only delays the online badge.
		h.emitAudit(c, "WARN", "failed to set online flag")
	}
	profile.IsOnline = true

	h.emitAudit(c, "INFO", "session started")
	c.JSON(http.StatusOK, gin.H{"access_token": token, "profile": profile})
}

// Logout flips the presence flag off and stamps last_seen_at.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString("userID")
	if err := h.profileRepo.SetOnline(c.Request.Context(), userID, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not end session"})
		return
	}
	h.emitAudit(c, "INFO", "session ended")
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
