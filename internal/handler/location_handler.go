package handler

import (
	"strconv"
	"strings"

	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService *service.LocationService
}

func NewLocationHandler(locationService *service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

func queryFloat(c *gin.Context, name string, required bool) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		if required {
			return 0, utils.BadRequest(name + " is required")
		}
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, utils.BadRequest(name + " must be a number")
	}
	return v, nil
}

// Nearby answers GET /locations/nearby?lat=&lng=&radius_km=&type=
func (h *LocationHandler) Nearby(c *gin.Context) {
	var (
		q   service.NearbyQuery
		err error
	)
	if q.Lat, err = queryFloat(c, "lat", true); err != nil {
		utils.HandleError(c, err)
		return
	}
	if q.Lng, err = queryFloat(c, "lng", true); err != nil {
		utils.HandleError(c, err)
		return
	}
	if q.RadiusKm, err = queryFloat(c, "radius_km", false); err != nil {
		utils.HandleError(c, err)
		return
	}
	q.Type = strings.TrimSpace(c.Query("type"))

	result, err := h.locationService.Nearby(c.Request.Context(), q)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}
