package handler

import (
	"strings"

	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	eventService *service.EventService
}

func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// eventQuery reads the shared list filters: q, organization_id, hospital_id, from, to, upcoming, status.
func eventQuery(c *gin.Context) (service.EventQuery, error) {
	q := service.EventQuery{
		Query:  strings.TrimSpace(c.Query("q")),
		Status: strings.TrimSpace(c.Query("status")),
	}
	var err error
	if q.OrganizationID, err = queryUint(c, "organization_id"); err != nil {
		return q, err
	}
	if q.HospitalID, err = queryUint(c, "hospital_id"); err != nil {
		return q, err
	}
	if q.From, err = parseDateParam(c, "from"); err != nil {
		return q, err
	}
	if q.To, err = parseDateParam(c, "to"); err != nil {
		return q, err
	}
	if q.To != nil {
		// the whole "to" day is included; the bound is the next midnight, exclusive
		end := q.To.AddDate(0, 0, 1)
		q.To = &end
	}
	upcoming, err := queryBool(c, "upcoming")
	if err != nil {
		return q, err
	}
	q.Upcoming = upcoming != nil && *upcoming
	return q, nil
}

// List returns approved events to anyone
func (h *EventHandler) List(c *gin.Context) {
	q, err := eventQuery(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := page(c)
	events, total, err := h.eventService.ListPublicEvents(c.Request.Context(), q, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, events, utils.BuildMeta(total, p))
}

func (h *EventHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	event, err := h.eventService.GetEvent(c.Request.Context(), optionalActor(c), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, event)
}

// Mine lists the events of the caller's organization or hospital, any status
func (h *EventHandler) Mine(c *gin.Context) {
	q, err := eventQuery(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	p := page(c)
	events, total, err := h.eventService.ListMyEvents(c.Request.Context(), actorFrom(c), q, p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, events, utils.BuildMeta(total, p))
}

func (h *EventHandler) Create(c *gin.Context) {
	var req service.EventInput
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.eventService.CreateEvent(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.CreatedResponse(c, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	var req service.EventInput
	if !bindJSON(c, &req) {
		return
	}
	event, err := h.eventService.UpdateEvent(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, event)
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	if err := h.eventService.DeleteEvent(c.Request.Context(), actorFrom(c), id); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.MessageResponse(c, "Event deleted successfully")
}

func (h *EventHandler) Registrations(c *gin.Context) {
	id, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	p := page(c)
	regs, total, err := h.eventService.ListEventRegistrations(c.Request.Context(), actorFrom(c), id, c.Query("status"), p)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.ListResponse(c, regs, utils.BuildMeta(total, p))
}
