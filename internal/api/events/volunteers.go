package events

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/db/models"
)

// CreateVolunteerRequest is the request body for a volunteer signup. UserID
// is optional; walk-up volunteers only carry contact details.
type CreateVolunteerRequest struct {
	UserID *string `json:"user_id"`
	Name   string  `json:"name" binding:"required"`
	Email  string  `json:"email" binding:"required,email"`
	Phone  string  `json:"phone"`
}

// @Summary      Register volunteer
// @Tags         Volunteers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateVolunteerRequest  true  "Volunteer"
// @Success      201  {object}  map[string]interface{}  "volunteer: models.Volunteer"
// @Router       /api/v1/volunteers [post]
func (h *Handlers) CreateVolunteer(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req CreateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	volunteer := &models.Volunteer{
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
	}
	if err := h.volunteerRepo.Create(c.Request.Context(), volunteer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create volunteer"})
		return
	}

	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     audit.ActionUserCreated,
		Resource:   audit.ResourceUser,
		ResourceID: volunteer.ID,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   map[string]interface{}{"kind": "volunteer"},
	})
	c.JSON(http.StatusCreated, gin.H{"volunteer": volunteer})
}

// @Summary      List volunteers
// @Tags         Volunteers
// @Security     Bearer
// @Produce      json
// @Param        page      query  int  false  "Page number (default 1)"
// @Param        per_page  query  int  false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "volunteers: []models.Volunteer, pagination: map"
// @Router       /api/v1/volunteers [get]
func (h *Handlers) ListVolunteers(c *gin.Context) {
	page, perPage := pagination(c)

	volunteers, total, err := h.volunteerRepo.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list volunteers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"volunteers": volunteers,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// @Summary      List event volunteers
// @Description  List the volunteers assigned to an event along with their assignment roles.
// @Tags         Volunteers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "volunteers: []models.Volunteer, assignments: []models.VolunteerAssignment"
// @Router       /api/v1/events/{id}/volunteers [get]
func (h *Handlers) ListEventVolunteers(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	volunteers, assignments, err := h.volunteerRepo.ListForEvent(c.Request.Context(), event.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list event volunteers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"volunteers":  volunteers,
		"assignments": assignments,
	})
}

// AssignVolunteerRequest carries the optional assignment role description.
type AssignVolunteerRequest struct {
	Assignment string `json:"assignment"`
}

// @Summary      Assign volunteer to event
// @Tags         Volunteers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id            path  string                  true   "Event ID"
// @Param        volunteer_id  path  string                  true   "Volunteer ID"
// @Param        body          body  AssignVolunteerRequest  false  "Assignment role"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/volunteers/{volunteer_id} [post]
func (h *Handlers) AssignVolunteer(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	volunteer, err := h.volunteerRepo.GetByID(c.Request.Context(), c.Param("volunteer_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load volunteer"})
		return
	}
	if volunteer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Volunteer not found"})
		return
	}

	var req AssignVolunteerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	if err := h.eventRepo.AssignVolunteer(c.Request.Context(), event.ID, volunteer.ID, req.Assignment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign volunteer"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"volunteer_id": volunteer.ID,
		"assignment":   req.Assignment,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Unassign volunteer from event
// @Tags         Volunteers
// @Security     Bearer
// @Produce      json
// @Param        id            path  string  true  "Event ID"
// @Param        volunteer_id  path  string  true  "Volunteer ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/volunteers/{volunteer_id} [delete]
func (h *Handlers) UnassignVolunteer(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	if err := h.eventRepo.UnassignVolunteer(c.Request.Context(), event.ID, c.Param("volunteer_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign volunteer"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"volunteer_id": c.Param("volunteer_id"),
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
