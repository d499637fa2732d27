package handler

import (
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type VolunteerHandler struct {
	volunteerService *service.VolunteerService
}

func NewVolunteerHandler(volunteerService *service.VolunteerService) *VolunteerHandler {
	return &VolunteerHandler{volunteerService: volunteerService}
}

func (h *VolunteerHandler) ListGroups(c *gin.Context) {
	orgID, err := queryUint(c, "organization_id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := page(c)
	groups, total, err := h.volunteerService.ListGroups(c.Request.Context(), orgID, c.Query("q"), p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, groups, utils.BuildMeta(total, p))
}

func (h *VolunteerHandler) GetGroup(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	group, err := h.volunteerService.GetGroup(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, group)
}

func (h *VolunteerHandler) ListMembers(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	p := page(c)
	members, total, err := h.volunteerService.ListMembers(c.Request.Context(), id, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, members, utils.BuildMeta(total, p))
}

func (h *VolunteerHandler) CreateGroup(c *gin.Context) {
	var req service.VolunteerGroupInput
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.volunteerService.CreateGroup(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, group)
}

func (h *VolunteerHandler) UpdateGroup(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	var req service.VolunteerGroupInput
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.volunteerService.UpdateGroup(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, group)
}

func (h *VolunteerHandler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	if err := h.volunteerService.DeleteGroup(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Volunteer group deleted successfully")
}

func (h *VolunteerHandler) Join(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	member, err := h.volunteerService.Join(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, member)
}

func (h *VolunteerHandler) Leave(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	if err := h.volunteerService.Leave(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Left volunteer group")
}

func (h *VolunteerHandler) MyGroups(c *gin.Context) {
	groups, err := h.volunteerService.MyGroups(c.Request.Context(), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}
