package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/domain/entity"
)

// SignupRequest creates the first admin account and its company.
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Country  string `json:"country" binding:"required"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// AuthResponse carries the user and their session token.
type AuthResponse struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// Signup handles POST /api/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.deps.AuthService.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Country:  req.Country,
	})
	if err != nil {
		h.logger.Error("Signup failed", "error", err, "email", req.Email)
		respondServiceError(c, err)
		return
	}

	respondCreated(c, AuthResponse{User: user, Token: token})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.deps.AuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Bad email and bad password look identical to the caller.
		if errors.Is(err, entity.ErrUnauthorized) {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("Login failed", "error", err)
		respondServiceError(c, err)
		return
	}

	respondOK(c, AuthResponse{User: user, Token: token})
}

// Me handles GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	respondOK(c, currentUser(c))
}

// ChangePassword handles POST /api/auth/change-password
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.deps.AuthService.ChangePassword(c.Request.Context(), currentUser(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, entity.ErrUnauthorized) {
			respondError(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "password changed"})
}
