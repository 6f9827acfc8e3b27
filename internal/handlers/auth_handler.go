package handlers

import (
	"context"
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/middleware"
	"github.com/gin-gonic/gin"
)

type StaffAuthenticator interface {
	LoginAs(ctx context.Context, email, password string) (string, error)
}

type AuthHandler struct {
	backend   StaffAuthenticator
	jwtSecret string
}

func NewAuthHandler(backend StaffAuthenticator, jwtSecret string) *AuthHandler {
	return &AuthHandler{backend: backend, jwtSecret: jwtSecret}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies staff credentials against the Railway backend and returns
// a session token for the management surface.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	if _, err := h.backend.LoginAs(c.Request.Context(), req.Email, req.Password); err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	token, expiresAt, err := middleware.IssueStaffToken(h.jwtSecret, req.Email)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to issue session token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":      token,
			"expires_at": expiresAt,
		},
	})
}
