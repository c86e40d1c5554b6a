package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/servus/internal/dto"
	"github.com/prohmpiriya/servus/internal/service"
	"github.com/prohmpiriya/servus/pkg/middleware"
	"github.com/prohmpiriya/servus/pkg/response"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// List handles GET /events, optionally restricted to a from/to window
func (h *EventHandler) List(c *gin.Context) {
	var query dto.ListEventsQuery
	if !bindQuery(c, &query) {
		return
	}

	result, err := h.eventService.List(c.Request.Context(), callerIdentity(c), &query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, result)
}

// GetByID handles GET /events/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	event, err := h.eventService.Get(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(event))
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), callerIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.SetAuditResource(c, "event", event.ID.Hex())
	c.JSON(http.StatusCreated, response.Success(event))
}

// Update handles PATCH /events/:id
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.UpdateEventRequest
	if !bindJSON(c, &req) {
		return
	}

	event, err := h.eventService.Update(c.Request.Context(), callerIdentity(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(event))
}

// Delete handles DELETE /events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.eventService.Delete(c.Request.Context(), callerIdentity(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Event deleted successfully"}))
}

// Occurrences handles GET /events/:id/occurrences?from&to&limit
func (h *EventHandler) Occurrences(c *gin.Context) {
	var window dto.WindowQuery
	if !bindQuery(c, &window) {
		return
	}

	result, err := h.eventService.Occurrences(c.Request.Context(), callerIdentity(c), c.Param("id"), &window)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(result))
}
