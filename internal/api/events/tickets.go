package events

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/telemetry"
)

// CreateTicketTypeRequest is the request body for creating a ticket class.
type CreateTicketTypeRequest struct {
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"min=0"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// @Summary      Create ticket type
// @Description  Create a ticket class with a bounded inventory for the event.
// @Tags         Tickets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Event ID"
// @Param        body  body  CreateTicketTypeRequest  true  "Ticket type"
// @Success      201  {object}  map[string]interface{}  "ticket_type: models.TicketType"
// @Router       /api/v1/events/{id}/tickets [post]
func (h *Handlers) CreateTicketType(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	var req CreateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ticket := &models.TicketType{
		EventID:    event.ID,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		Quantity:   req.Quantity,
	}
	if err := h.ticketRepo.Create(c.Request.Context(), ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket type"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"ticket_type_id": ticket.ID,
		"quantity":       ticket.Quantity,
	})
	c.JSON(http.StatusCreated, gin.H{"ticket_type": ticket})
}

// @Summary      List ticket types
// @Tags         Tickets
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "ticket_types: []models.TicketType"
// @Router       /api/v1/events/{id}/tickets [get]
func (h *Handlers) ListTicketTypes(c *gin.Context) {
	event, err := h.eventRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	tickets, err := h.ticketRepo.ListForEvent(c.Request.Context(), event.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ticket types"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket_types": tickets})
}

// UpdateTicketTypeRequest is the request body for ticket type updates.
// Quantity may grow but never shrink below what is already sold; the
// repository enforces that with a guarded UPDATE.
type UpdateTicketTypeRequest struct {
	Name       string `json:"name" binding:"required"`
	PriceCents int64  `json:"price_cents" binding:"min=0"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// @Summary      Update ticket type
// @Tags         Tickets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string                   true  "Event ID"
// @Param        ticket_id  path  string                   true  "Ticket type ID"
// @Param        body       body  UpdateTicketTypeRequest  true  "Ticket type fields"
// @Success      200  {object}  map[string]interface{}  "ticket_type: models.TicketType"
// @Failure      409  {object}  map[string]interface{}  "Quantity below tickets already sold"
// @Router       /api/v1/events/{id}/tickets/{ticket_id} [put]
func (h *Handlers) UpdateTicketType(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	ticket := h.loadTicketType(c, event.ID)
	if ticket == nil {
		return
	}

	var req UpdateTicketTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ticket.Name = req.Name
	ticket.PriceCents = req.PriceCents
	ticket.Quantity = req.Quantity
	err := h.ticketRepo.Update(c.Request.Context(), ticket)
	if errors.Is(err, repositories.ErrSoldOut) {
		c.JSON(http.StatusConflict, gin.H{"error": "Quantity cannot drop below tickets already sold"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ticket type"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"ticket_type_id": ticket.ID,
	})
	c.JSON(http.StatusOK, gin.H{"ticket_type": ticket})
}

// PurchaseRequest names how many tickets to buy. Count defaults to 1.
type PurchaseRequest struct {
	Count int `json:"count"`
}

// @Summary      Purchase tickets
// @Description  Atomically purchase tickets from a ticket class. The inventory check and the sold-count increment happen in a single guarded UPDATE, so concurrent purchases cannot oversell.
// @Tags         Tickets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id         path  string           true   "Event ID"
// @Param        ticket_id  path  string           true   "Ticket type ID"
// @Param        body       body  PurchaseRequest  false  "Purchase count (default 1)"
// @Success      200  {object}  map[string]interface{}  "ticket_type: models.TicketType"
// @Failure      409  {object}  map[string]interface{}  "Not enough tickets remaining"
// @Router       /api/v1/events/{id}/tickets/{ticket_id}/purchase [post]
func (h *Handlers) PurchaseTickets(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	event, err := h.eventRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	ticket := h.loadTicketType(c, event.ID)
	if ticket == nil {
		return
	}

	var req PurchaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	err = h.ticketRepo.Purchase(c.Request.Context(), ticket.ID, req.Count)
	if errors.Is(err, repositories.ErrSoldOut) {
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Not enough tickets remaining",
			"remaining": ticket.Remaining(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purchase tickets"})
		return
	}

	telemetry.TicketsSoldTotal.WithLabelValues(event.ID).Add(float64(req.Count))
	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"ticket_type_id": ticket.ID,
		"purchased":      req.Count,
	})

	ticket.Sold += req.Count
	c.JSON(http.StatusOK, gin.H{"ticket_type": ticket})
}

// @Summary      Delete ticket type
// @Tags         Tickets
// @Security     Bearer
// @Produce      json
// @Param        id         path  string  true  "Event ID"
// @Param        ticket_id  path  string  true  "Ticket type ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/tickets/{ticket_id} [delete]
func (h *Handlers) DeleteTicketType(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	ticket := h.loadTicketType(c, event.ID)
	if ticket == nil {
		return
	}

	if err := h.ticketRepo.Delete(c.Request.Context(), ticket.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ticket type"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"ticket_type_id": ticket.ID,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// loadTicketType loads the ticket type and verifies it belongs to the event,
// writing the error response itself.
func (h *Handlers) loadTicketType(c *gin.Context, eventID string) *models.TicketType {
	ticket, err := h.ticketRepo.GetByID(c.Request.Context(), c.Param("ticket_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ticket type"})
		return nil
	}
	if ticket == nil || ticket.EventID != eventID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
		return nil
	}
	return ticket
}
