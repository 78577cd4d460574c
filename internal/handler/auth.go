package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/redis"
	"ridebook/internal/service"
)

// AuthHandler handles HTTP requests for accounts and sessions.
type AuthHandler struct {
	authService *service.AuthService
	tokens      *auth.Manager
	tokenStore  *redis.TokenStore
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, tokens *auth.Manager, tokenStore *redis.TokenStore) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokens:      tokens,
		tokenStore:  tokenStore,
	}
}

// SignupRequest is the HTTP request body for registration.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// LoginRequest is the HTTP request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the HTTP request body for profile updates.
type UpdateProfileRequest struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	IsActive     *bool   `json:"is_active,omitempty"`
	VehicleNo    *string `json:"vehicle_no,omitempty"`
	VehicleModel *string `json:"vehicle_model,omitempty"`
}

// ProfileResponse is the HTTP representation of an account.
type ProfileResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	IsActive     bool   `json:"is_active"`
	VehicleNo    string `json:"vehicle_no,omitempty"`
	VehicleModel string `json:"vehicle_model,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toProfileResponse(p *service.Profile) ProfileResponse {
	return ProfileResponse{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		Role:         string(p.Role),
		IsActive:     p.IsActive,
		VehicleNo:    p.VehicleNo,
		VehicleModel: p.VehicleModel,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	profile, err := h.authService.Signup(c.Request.Context(), service.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"message": "signup successful",
		"user":    toProfileResponse(profile),
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	// Browser clients get the token as an HTTP-only cookie; API clients can
	// use the token field with a Bearer header.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, result.Token, int(h.tokens.TTL().Seconds()), "/", "", false, true)

	respondJSON(c, http.StatusOK, gin.H{
		"message": "login successful",
		"token":   result.Token,
		"user":    toProfileResponse(result.Profile),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.authService.GetProfile(c.Request.Context(), auth.CallerID(c), auth.CallerRole(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"user": toProfileResponse(profile)})
}

// UpdateProfile handles POST /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "validation_error"})
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), auth.CallerID(c), auth.CallerRole(c), service.UpdateProfileRequest{
		Name:         req.Name,
		Phone:        req.Phone,
		IsActive:     req.IsActive,
		VehicleNo:    req.VehicleNo,
		VehicleModel: req.VehicleModel,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"user": toProfileResponse(profile)})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if tokenID := auth.TokenID(c); tokenID != "" {
		// Revoke for the token's full lifetime; expiry handles the rest.
		_ = h.tokenStore.Revoke(c.Request.Context(), tokenID, h.tokens.TTL())
	}

	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)

	respondJSON(c, http.StatusOK, gin.H{"message": "logged out successfully"})
}
