package handler

import (
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type RegistrationHandler struct {
	regService *service.RegistrationService
}

func NewRegistrationHandler(regService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{regService: regService}
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	var req service.RegisterEventInput
	if !bindJSON(c, &req) {
		return
	}
	reg, err := h.regService.Register(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, reg)
}

func (h *RegistrationHandler) Mine(c *gin.Context) {
	p := page(c)
	regs, total, err := h.regService.ListMine(c.Request.Context(), actorFrom(c), c.Query("status"), p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, regs, utils.BuildMeta(total, p))
}

func (h *RegistrationHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id", "registration")
	if !ok {
		return
	}
	if err := h.regService.Cancel(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Registration cancelled")
}
