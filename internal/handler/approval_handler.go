package handler

import (
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ApprovalHandler serves the review queues. status defaults to cho_duyet; "all" disables the filter.
type ApprovalHandler struct {
	approvalService *service.ApprovalService
}

func NewApprovalHandler(approvalService *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) ListEvents(c *gin.Context) {
	p := page(c)
	events, total, err := h.approvalService.ListEvents(c.Request.Context(), actorFrom(c), c.Query("status"), p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, events, utils.BuildMeta(total, p))
}

func (h *ApprovalHandler) ReviewEvent(c *gin.Context) {
	id, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	var req service.ReviewInput
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.approvalService.ReviewEvent(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, event)
}

func (h *ApprovalHandler) ListRegistrations(c *gin.Context) {
	eventID, err := queryUint(c, "event_id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := page(c)
	regs, total, err := h.approvalService.ListRegistrations(c.Request.Context(), actorFrom(c), c.Query("status"), eventID, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, regs, utils.BuildMeta(total, p))
}

func (h *ApprovalHandler) ReviewRegistration(c *gin.Context) {
	id, ok := parseID(c, "id", "registration")
	if !ok {
		return
	}
	var req service.ReviewInput
	if !bindJSON(c, &req) {
		return
	}
	reg, err := h.approvalService.ReviewRegistration(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, reg)
}
