package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"blood-donation-backend/internal/middleware"
	"blood-donation-backend/internal/realtime"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type WSHandler struct {
	hub      *realtime.Hub
	accounts middleware.AccountChecker
	logger   *slog.Logger
}

// NewWSHandler builds the upgrade handler. A nil accounts checker skips the
// is_active check.
func NewWSHandler(hub *realtime.Hub, accounts middleware.AccountChecker, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, accounts: accounts, logger: logger}
}

// Connect upgrades to a WebSocket bound to the caller's user room.
// Browsers cannot set headers on the handshake, so ?token= is accepted alongside Bearer.
func (h *WSHandler) Connect(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = strings.TrimSpace(parts[1])
		}
	}
	if token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization token required")
		return
	}

	claims, err := utils.ValidateAccessToken(token)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if h.accounts != nil {
		active, err := h.accounts.IsActive(c.Request.Context(), claims.UserID)
		if err != nil {
			utils.HandleError(c, err)
			return
		}
		if !active {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Account is disabled")
			return
		}
	}

	if err := h.hub.Serve(c.Writer, c.Request, claims.UserID); err != nil {
		// the upgrader has already answered the client
		h.logger.Warn("websocket upgrade failed", "user_id", claims.UserID, "error", err)
	}
}
