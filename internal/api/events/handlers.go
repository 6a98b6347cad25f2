// Package events implements the event management surface: event CRUD, the
// status state machine, publishing, and the event-scoped sub-resources
// (budget items, ticket types, volunteer assignments, vendor/sponsor links).
//
// Every mutation runs an ownership check: the event's organizer or an admin.
// The transition table is enforced in the repository with a guarded UPDATE,
// so two concurrent transitions cannot both succeed from the same state.
package events

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

// Handlers bundles the event endpoints and their sub-resources.
type Handlers struct {
	eventRepo     *repositories.EventRepository
	vendorRepo    *repositories.VendorRepository
	sponsorRepo   *repositories.SponsorRepository
	volunteerRepo *repositories.VolunteerRepository
	budgetRepo    *repositories.BudgetRepository
	ticketRepo    *repositories.TicketRepository
	recorder      *audit.Recorder
}

// NewHandlers creates the event handlers.
func NewHandlers(db *sql.DB, recorder *audit.Recorder) *Handlers {
	return &Handlers{
		eventRepo:     repositories.NewEventRepository(db),
		vendorRepo:    repositories.NewVendorRepository(db),
		sponsorRepo:   repositories.NewSponsorRepository(db),
		volunteerRepo: repositories.NewVolunteerRepository(db),
		budgetRepo:    repositories.NewBudgetRepository(db),
		ticketRepo:    repositories.NewTicketRepository(db),
		recorder:      recorder,
	}
}

// record writes an event-resource audit entry with request client context.
func (h *Handlers) record(c *gin.Context, caller *auth.Caller, action audit.Action, eventID string, metadata map[string]interface{}) {
	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     action,
		Resource:   audit.ResourceEvent,
		ResourceID: eventID,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   metadata,
	})
}

// loadOwnedEvent loads the event and enforces the ownership check, writing
// the error response itself. Returns nil when the request was already
// answered.
func (h *Handlers) loadOwnedEvent(c *gin.Context, caller *auth.Caller) *models.Event {
	event, err := h.eventRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		return nil
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return nil
	}
	if !caller.CanManage(event.OrganizerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not the event organizer"})
		return nil
	}
	return event
}

func requireCaller(c *gin.Context) (*auth.Caller, bool) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return caller, true
}

// CreateEventRequest is the request body for event creation.
type CreateEventRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// @Summary      Create event
// @Description  Create a new event owned by the caller. Events always start in draft.
// @Tags         Events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateEventRequest  true  "Event"
// @Success      201  {object}  map[string]interface{}  "event: models.Event"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Router       /api/v1/events [post]
func (h *Handlers) Create(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event cannot end before it starts"})
		return
	}

	event := &models.Event{
		OrganizerID: caller.ID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if err := h.eventRepo.Create(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	h.record(c, caller, audit.ActionEventCreated, event.ID, nil)
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

// @Summary      Get event
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      404  {object}  map[string]interface{}  "Event not found"
// @Router       /api/v1/events/{id} [get]
func (h *Handlers) Get(c *gin.Context) {
	event, err := h.eventRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// @Summary      List events
// @Description  List events with optional organizer and status filters.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        organizer_id  query  string  false  "Filter by organizer"
// @Param        status        query  string  false  "Filter by status"
// @Param        page          query  int     false  "Page number (default 1)"
// @Param        per_page      query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "events: []models.Event, pagination: map"
// @Router       /api/v1/events [get]
func (h *Handlers) List(c *gin.Context) {
	page, perPage := pagination(c)

	var organizerID, status *string
	if v := c.Query("organizer_id"); v != "" {
		organizerID = &v
	}
	if v := c.Query("status"); v != "" {
		status = &v
	}

	events, total, err := h.eventRepo.List(c.Request.Context(), organizerID, status, perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// UpdateEventRequest is the request body for event updates. Status changes go
// through the transition endpoint, not here.
type UpdateEventRequest struct {
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// @Summary      Update event
// @Tags         Events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "Event ID"
// @Param        body  body  UpdateEventRequest  true  "Event fields"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      403  {object}  map[string]interface{}  "Not the event organizer"
// @Router       /api/v1/events/{id} [put]
func (h *Handlers) Update(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	event.Name = req.Name
	event.Description = req.Description
	event.Location = req.Location
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	if err := h.eventRepo.Update(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, nil)
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// @Summary      Delete event
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Failure      403  {object}  map[string]interface{}  "Not the event organizer"
// @Router       /api/v1/events/{id} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	if err := h.eventRepo.Delete(c.Request.Context(), event.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	h.record(c, caller, audit.ActionEventDeleted, event.ID, nil)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// TransitionRequest names the status the event should move to.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary      Transition event status
// @Description  Move the event through its status state machine (draft → planning → active → completed, with cancellation and draft reopening). Unlisted transitions are rejected.
// @Tags         Events
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Event ID"
// @Param        body  body  TransitionRequest  true  "Target status"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      409  {object}  map[string]interface{}  "Invalid status transition"
// @Router       /api/v1/events/{id}/transition [post]
func (h *Handlers) Transition(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.eventRepo.Transition(c.Request.Context(), event.ID, event.Status, req.Status)
	if errors.Is(err, repositories.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": event.Status + " → " + req.Status,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transition event"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"from": event.Status,
		"to":   req.Status,
	})
	event.Status = req.Status
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// @Summary      Publish event
// @Description  Stamp the event's published_at. Publishing is idempotent; the first timestamp is kept.
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "event: models.Event"
// @Failure      403  {object}  map[string]interface{}  "Not the event organizer"
// @Router       /api/v1/events/{id}/publish [post]
func (h *Handlers) Publish(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	if err := h.eventRepo.Publish(c.Request.Context(), event.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish event"})
		return
	}

	h.record(c, caller, audit.ActionEventPublished, event.ID, nil)

	event, err := h.eventRepo.GetByID(c.Request.Context(), event.ID)
	if err != nil || event == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// ---------------------------------------------------------------------------
// Vendor / sponsor links
// ---------------------------------------------------------------------------

// @Summary      Attach vendor to event
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id         path  string  true  "Event ID"
// @Param        vendor_id  path  string  true  "Vendor ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/vendors/{vendor_id} [post]
func (h *Handlers) AttachVendor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	vendor, err := h.vendorRepo.GetByID(c.Request.Context(), c.Param("vendor_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load vendor"})
		return
	}
	if vendor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	if err := h.eventRepo.AttachVendor(c.Request.Context(), event.ID, vendor.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach vendor"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{"vendor_id": vendor.ID})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Detach vendor from event
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id         path  string  true  "Event ID"
// @Param        vendor_id  path  string  true  "Vendor ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/vendors/{vendor_id} [delete]
func (h *Handlers) DetachVendor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	if err := h.eventRepo.DetachVendor(c.Request.Context(), event.ID, c.Param("vendor_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach vendor"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{"vendor_id": c.Param("vendor_id")})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Attach sponsor to event
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id          path  string  true  "Event ID"
// @Param        sponsor_id  path  string  true  "Sponsor ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/sponsors/{sponsor_id} [post]
func (h *Handlers) AttachSponsor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	sponsor, err := h.sponsorRepo.GetByID(c.Request.Context(), c.Param("sponsor_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sponsor"})
		return
	}
	if sponsor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sponsor not found"})
		return
	}

	if err := h.eventRepo.AttachSponsor(c.Request.Context(), event.ID, sponsor.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach sponsor"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{"sponsor_id": sponsor.ID})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary      Detach sponsor from event
// @Tags         Events
// @Security     Bearer
// @Produce      json
// @Param        id          path  string  true  "Event ID"
// @Param        sponsor_id  path  string  true  "Sponsor ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/sponsors/{sponsor_id} [delete]
func (h *Handlers) DetachSponsor(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	if err := h.eventRepo.DetachSponsor(c.Request.Context(), event.ID, c.Param("sponsor_id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach sponsor"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{"sponsor_id": c.Param("sponsor_id")})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// pagination parses the standard page/per_page query parameters.
func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
