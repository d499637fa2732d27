package handler

import (
	"net/http"
	"strings"

	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

type AuthHandler struct {
	authService  *service.AuthService
	cookieSecure bool
}

func NewAuthHandler(authService *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest accepts either an email or a phone number as the identifier.
type LoginRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookie, token, int(utils.GetRefreshTokenExpiry().Seconds()), "/", "", h.cookieSecure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, "/", "", h.cookieSecure, true)
}

// refreshTokenFrom prefers the HttpOnly cookie and falls back to the JSON body.
func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookie); err == nil && token != "" {
		return token
	}
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

// RequestRegistrationOTP emails a verification code to a new address
func (h *AuthHandler) RequestRegistrationOTP(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.RequestRegistrationOTP(c.Request.Context(), req.Email); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Verification code sent")
}

// Register creates a donor or volunteer account and signs it in
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	response, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.CreatedResponse(c, response)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = strings.TrimSpace(req.Phone)
	}
	if identifier == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "email or phone is required")
		return
	}

	response, err := h.authService.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, response.RefreshToken)
	utils.SuccessResponse(c, response)
}

// Refresh generates a new access token from refresh token
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := refreshTokenFrom(c)
	if refreshToken == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	accessToken, err := h.authService.RefreshAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"access_token": accessToken,
	})
}

// Logout revokes the refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken := refreshTokenFrom(c); refreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			utils.HandleError(c, err)
			return
		}
	}

	h.clearRefreshCookie(c)
	utils.MessageResponse(c, "Logged out successfully")
}

// ForgotPassword always answers 200 so accounts cannot be probed
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	h.authService.ForgotPassword(c.Request.Context(), req.Email)
	utils.MessageResponse(c, "If the email is registered, a reset code has been sent")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Password has been reset, please sign in again")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	actor := actorFrom(c)
	if err := h.authService.ChangePassword(c.Request.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.HandleError(c, err)
		return
	}
	h.clearRefreshCookie(c)
	utils.MessageResponse(c, "Password changed successfully")
}

func (h *AuthHandler) Me(c *gin.Context) {
	me, err := h.authService.Me(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, me)
}
