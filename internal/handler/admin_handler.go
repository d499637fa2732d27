package handler

import (
	"net/http"
	"strings"

	"blood-donation-backend/internal/repository"
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type UserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	active, err := queryBool(c, "active")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	filter := repository.UserFilter{
		Role:   strings.TrimSpace(c.Query("role")),
		Query:  strings.TrimSpace(c.Query("q")),
		Active: active,
	}

	p := utils.ParsePage(c, utils.AdminPageOpts)
	users, total, err := h.adminService.ListUsers(c.Request.Context(), filter, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, users, utils.BuildMeta(total, p))
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.CreateUser(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, user)
}

func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	var req UserStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.adminService.SetUserStatus(c.Request.Context(), actorFrom(c), id, *req.IsActive); err != nil {
		utils.HandleError(c, err)
		return
	}
	if *req.IsActive {
		utils.MessageResponse(c, "User activated")
		return
	}
	utils.MessageResponse(c, "User deactivated")
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	if err := h.adminService.DeleteUser(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "User deleted successfully")
}

func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := utils.ParsePage(c, utils.AdminPageOpts)
	logs, total, err := h.adminService.ListAuditLogs(c.Request.Context(), strings.TrimSpace(c.Query("action")), userID, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, logs, utils.BuildMeta(total, p))
}

// Broadcast sends a notification to every active user, or to one role
func (h *AdminHandler) Broadcast(c *gin.Context) {
	var req service.BroadcastInput
	if !bindJSON(c, &req) {
		return
	}
	sent, err := h.adminService.Broadcast(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    gin.H{"recipients": sent},
	})
}
