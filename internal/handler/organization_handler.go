package handler

import (
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type OrganizationHandler struct {
	orgService *service.OrganizationService
}

func NewOrganizationHandler(orgService *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.orgService.GetAllOrganizations(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"organizations": orgs,
		"count":         len(orgs),
	})
}

func (h *OrganizationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "organization")
	if !ok {
		return
	}
	org, err := h.orgService.GetOrganizationByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, org)
}

func (h *OrganizationHandler) Create(c *gin.Context) {
	var req service.OrganizationInput
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.orgService.CreateOrganization(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, org)
}

func (h *OrganizationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "organization")
	if !ok {
		return
	}
	var req service.OrganizationInput
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.orgService.UpdateOrganization(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, org)
}

func (h *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "organization")
	if !ok {
		return
	}
	if err := h.orgService.DeleteOrganization(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Organization deleted successfully")
}

func (h *OrganizationHandler) GetMine(c *gin.Context) {
	org, err := h.orgService.GetMyOrganization(c.Request.Context(), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, org)
}

func (h *OrganizationHandler) UpdateMine(c *gin.Context) {
	var req service.OrganizationInput
	if !bindJSON(c, &req) {
		return
	}
	org, err := h.orgService.UpdateMyOrganization(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, org)
}
