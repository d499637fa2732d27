package handler

import (
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type HospitalHandler struct {
	hospitalService *service.HospitalService
}

func NewHospitalHandler(hospitalService *service.HospitalService) *HospitalHandler {
	return &HospitalHandler{
		hospitalService: hospitalService,
	}
}

// GetAllHospitals lists the active hospitals
func (h *HospitalHandler) GetAllHospitals(c *gin.Context) {
	hospitals, err := h.hospitalService.GetAllHospitals(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"hospitals": hospitals,
		"count":     len(hospitals),
	})
}

// GetHospital retrieves a specific hospital by ID
func (h *HospitalHandler) GetHospital(c *gin.Context) {
	id, ok := parseID(c, "id", "hospital")
	if !ok {
		return
	}

	hospital, err := h.hospitalService.GetHospitalByID(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, hospital)
}

// CreateHospital creates a new hospital (admin only)
func (h *HospitalHandler) CreateHospital(c *gin.Context) {
	var req service.HospitalInput
	if !bindJSON(c, &req) {
		return
	}

	hospital, err := h.hospitalService.CreateHospital(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, hospital)
}

// UpdateHospital updates an existing hospital (admin only)
func (h *HospitalHandler) UpdateHospital(c *gin.Context) {
	id, ok := parseID(c, "id", "hospital")
	if !ok {
		return
	}

	var req service.HospitalInput
	if !bindJSON(c, &req) {
		return
	}

	hospital, err := h.hospitalService.UpdateHospital(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, hospital)
}

// DeleteHospital deactivates a hospital (admin only)
func (h *HospitalHandler) DeleteHospital(c *gin.Context) {
	id, ok := parseID(c, "id", "hospital")
	if !ok {
		return
	}

	if err := h.hospitalService.DeleteHospital(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.MessageResponse(c, "Hospital deleted successfully")
}

func (h *HospitalHandler) GetMyHospital(c *gin.Context) {
	hospital, err := h.hospitalService.GetMyHospital(c.Request.Context(), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, hospital)
}

func (h *HospitalHandler) UpdateMyHospital(c *gin.Context) {
	var req service.HospitalInput
	if !bindJSON(c, &req) {
		return
	}
	hospital, err := h.hospitalService.UpdateMyHospital(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, hospital)
}

// RecordResults stores the outcome of every registration in the batch, or none of them
func (h *HospitalHandler) RecordResults(c *gin.Context) {
	var req service.RecordResultsInput
	if !bindJSON(c, &req) {
		return
	}

	results, err := h.hospitalService.RecordResults(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"results": results,
		"count":   len(results),
	})
}

func (h *HospitalHandler) ListResults(c *gin.Context) {
	eventID, err := queryUint(c, "event_id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := page(c)
	results, total, err := h.hospitalService.ListResults(c.Request.Context(), actorFrom(c), eventID, c.Query("status"), p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, results, utils.BuildMeta(total, p))
}

// ConfirmBloodType sets a donor's verified blood type
func (h *HospitalHandler) ConfirmBloodType(c *gin.Context) {
	id, ok := parseID(c, "id", "donor")
	if !ok {
		return
	}
	var req service.BloodTypeInput
	if !bindJSON(c, &req) {
		return
	}

	donor, err := h.hospitalService.ConfirmBloodType(c.Request.Context(), actorFrom(c), id, req.BloodType)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, donor)
}
