package events

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
)

// CreateBudgetItemRequest is the request body for adding a budget line item.
type CreateBudgetItemRequest struct {
	Category       string  `json:"category" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	EstimatedCents int64   `json:"estimated_cents" binding:"min=0"`
	ActualCents    int64   `json:"actual_cents" binding:"min=0"`
	VendorID       *string `json:"vendor_id"`
	SponsorID      *string `json:"sponsor_id"`
}

// @Summary      Add budget item
// @Description  Add a line item to the event's budget. Category must be one of the closed category set; amounts are in cents.
// @Tags         Budget
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Event ID"
// @Param        body  body  CreateBudgetItemRequest  true  "Budget item"
// @Success      201  {object}  map[string]interface{}  "budget_item: models.BudgetItem"
// @Failure      400  {object}  map[string]interface{}  "Unknown budget category"
// @Router       /api/v1/events/{id}/budget [post]
func (h *Handlers) CreateBudgetItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	var req CreateBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !models.IsValidBudgetCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown budget category: " + req.Category})
		return
	}

	item := &models.BudgetItem{
		EventID:        event.ID,
		Category:       req.Category,
		Name:           req.Name,
		EstimatedCents: req.EstimatedCents,
		ActualCents:    req.ActualCents,
		VendorID:       req.VendorID,
		SponsorID:      req.SponsorID,
	}
	if err := h.budgetRepo.Create(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create budget item"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"budget_item_id": item.ID,
		"category":       item.Category,
	})
	c.JSON(http.StatusCreated, gin.H{"budget_item": item})
}

// @Summary      List budget items
// @Tags         Budget
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "budget_items: []models.BudgetItem"
// @Router       /api/v1/events/{id}/budget [get]
func (h *Handlers) ListBudgetItems(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	items, err := h.budgetRepo.ListForEvent(c.Request.Context(), event.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list budget items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget_items": items})
}

// @Summary      Budget summary
// @Description  Aggregate the event's budget by category and status, with item counts and estimated/actual totals in cents.
// @Tags         Budget
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  map[string]interface{}  "summary: []models.BudgetSummaryRow"
// @Router       /api/v1/events/{id}/budget/summary [get]
func (h *Handlers) BudgetSummary(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	summary, err := h.budgetRepo.SummaryByEvent(c.Request.Context(), event.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarize budget"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// UpdateBudgetItemRequest is the request body for budget item updates.
// Status changes go through the transition endpoint.
type UpdateBudgetItemRequest struct {
	Name           string  `json:"name" binding:"required"`
	EstimatedCents int64   `json:"estimated_cents" binding:"min=0"`
	ActualCents    int64   `json:"actual_cents" binding:"min=0"`
	VendorID       *string `json:"vendor_id"`
	SponsorID      *string `json:"sponsor_id"`
}

// @Summary      Update budget item
// @Tags         Budget
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Event ID"
// @Param        item_id  path  string                   true  "Budget item ID"
// @Param        body     body  UpdateBudgetItemRequest  true  "Budget item fields"
// @Success      200  {object}  map[string]interface{}  "budget_item: models.BudgetItem"
// @Router       /api/v1/events/{id}/budget/{item_id} [put]
func (h *Handlers) UpdateBudgetItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	item := h.loadBudgetItem(c, event.ID)
	if item == nil {
		return
	}

	var req UpdateBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	item.Name = req.Name
	item.EstimatedCents = req.EstimatedCents
	item.ActualCents = req.ActualCents
	item.VendorID = req.VendorID
	item.SponsorID = req.SponsorID
	if err := h.budgetRepo.Update(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update budget item"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"budget_item_id": item.ID,
	})
	c.JSON(http.StatusOK, gin.H{"budget_item": item})
}

// @Summary      Transition budget item status
// @Description  Move the item through planned → committed → paid, with cancellation. The transition to paid stamps paid_at.
// @Tags         Budget
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "Event ID"
// @Param        item_id  path  string             true  "Budget item ID"
// @Param        body     body  TransitionRequest  true  "Target status"
// @Success      200  {object}  map[string]interface{}  "budget_item: models.BudgetItem"
// @Failure      409  {object}  map[string]interface{}  "Invalid status transition"
// @Router       /api/v1/events/{id}/budget/{item_id}/transition [post]
func (h *Handlers) TransitionBudgetItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	item := h.loadBudgetItem(c, event.ID)
	if item == nil {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.budgetRepo.Transition(c.Request.Context(), item.ID, item.Status, req.Status)
	if errors.Is(err, repositories.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid status transition",
			"details": item.Status + " → " + req.Status,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transition budget item"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"budget_item_id": item.ID,
		"from":           item.Status,
		"to":             req.Status,
	})
	item.Status = req.Status
	c.JSON(http.StatusOK, gin.H{"budget_item": item})
}

// @Summary      Delete budget item
// @Tags         Budget
// @Security     Bearer
// @Produce      json
// @Param        id       path  string  true  "Event ID"
// @Param        item_id  path  string  true  "Budget item ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/events/{id}/budget/{item_id} [delete]
func (h *Handlers) DeleteBudgetItem(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	event := h.loadOwnedEvent(c, caller)
	if event == nil {
		return
	}

	item := h.loadBudgetItem(c, event.ID)
	if item == nil {
		return
	}

	if err := h.budgetRepo.Delete(c.Request.Context(), item.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete budget item"})
		return
	}

	h.record(c, caller, audit.ActionEventUpdated, event.ID, map[string]interface{}{
		"budget_item_id": item.ID,
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// loadBudgetItem loads the item and verifies it belongs to the event, writing
// the error response itself.
func (h *Handlers) loadBudgetItem(c *gin.Context, eventID string) *models.BudgetItem {
	item, err := h.budgetRepo.GetByID(c.Request.Context(), c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load budget item"})
		return nil
	}
	if item == nil || item.EventID != eventID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget item not found"})
		return nil
	}
	return item
}
