package handler

import (
	"strings"

	"blood-donation-backend/internal/repository"
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DonorHandler struct {
	donorService *service.DonorService
}

func NewDonorHandler(donorService *service.DonorService) *DonorHandler {
	return &DonorHandler{donorService: donorService}
}

func (h *DonorHandler) GetMe(c *gin.Context) {
	donor, err := h.donorService.GetMyProfile(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, donor)
}

func (h *DonorHandler) UpdateMe(c *gin.Context) {
	var req service.UpdateDonorInput
	if !bindJSON(c, &req) {
		return
	}
	donor, err := h.donorService.UpdateMyProfile(c.Request.Context(), actorFrom(c).UserID, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, donor)
}

func (h *DonorHandler) MyDonations(c *gin.Context) {
	p := page(c)
	results, total, err := h.donorService.MyDonations(c.Request.Context(), actorFrom(c).UserID, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, results, utils.BuildMeta(total, p))
}

// List searches donors by blood type, confirmation and name
func (h *DonorHandler) List(c *gin.Context) {
	confirmed, err := queryBool(c, "confirmed")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	filter := repository.DonorFilter{
		BloodType: strings.ToUpper(strings.TrimSpace(c.Query("blood_type"))),
		Confirmed: confirmed,
		Query:     strings.TrimSpace(c.Query("q")),
	}

	p := page(c)
	donors, total, err := h.donorService.ListDonors(c.Request.Context(), filter, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, donors, utils.BuildMeta(total, p))
}

func (h *DonorHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "donor")
	if !ok {
		return
	}
	donor, err := h.donorService.GetDonor(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, donor)
}
