// Package sponsors implements the sponsor registry: registration, lookup,
// and the admin approval workflow. New sponsors always enter as pending,
// mirroring the vendor registry.
package sponsors

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eventlane/eventlane/internal/audit"
	"github.com/eventlane/eventlane/internal/auth"
	"github.com/eventlane/eventlane/internal/db/models"
	"github.com/eventlane/eventlane/internal/db/repositories"
	"github.com/eventlane/eventlane/internal/middleware"
)

// Handlers bundles the sponsor endpoints.
type Handlers struct {
	sponsorRepo *repositories.SponsorRepository
	recorder    *audit.Recorder
}

// NewHandlers creates the sponsor handlers.
func NewHandlers(db *sql.DB, recorder *audit.Recorder) *Handlers {
	return &Handlers{
		sponsorRepo: repositories.NewSponsorRepository(db),
		recorder:    recorder,
	}
}

func (h *Handlers) record(c *gin.Context, caller *auth.Caller, action audit.Action, sponsorID string, metadata map[string]interface{}) {
	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     action,
		Resource:   audit.ResourceSponsor,
		ResourceID: sponsorID,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   metadata,
	})
}

// RegisterSponsorRequest is the request body for sponsor registration.
type RegisterSponsorRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Tier         string `json:"tier"`
}

// @Summary      Register sponsor
// @Description  Register a sponsor. New sponsors start in pending status regardless of the request.
// @Tags         Sponsors
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterSponsorRequest  true  "Sponsor"
// @Success      201  {object}  map[string]interface{}  "sponsor: models.Sponsor"
// @Router       /api/v1/sponsors [post]
func (h *Handlers) Register(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req RegisterSponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sponsor := &models.Sponsor{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Tier:         req.Tier,
		CreatedBy:    &caller.ID,
	}
	if err := h.sponsorRepo.Create(c.Request.Context(), sponsor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register sponsor"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"sponsor": sponsor})
}

// @Summary      Get sponsor
// @Tags         Sponsors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sponsor ID"
// @Success      200  {object}  map[string]interface{}  "sponsor: models.Sponsor"
// @Failure      404  {object}  map[string]interface{}  "Sponsor not found"
// @Router       /api/v1/sponsors/{id} [get]
func (h *Handlers) Get(c *gin.Context) {
	sponsor, err := h.sponsorRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sponsor"})
		return
	}
	if sponsor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sponsor not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor": sponsor})
}

// @Summary      List sponsors
// @Tags         Sponsors
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "Filter by approval status"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "sponsors: []models.Sponsor, pagination: map"
// @Router       /api/v1/sponsors [get]
func (h *Handlers) List(c *gin.Context) {
	page, perPage := pagination(c)

	var status *string
	if v := c.Query("status"); v != "" {
		status = &v
	}

	sponsors, total, err := h.sponsorRepo.List(c.Request.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sponsors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sponsors": sponsors,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// UpdateSponsorRequest is the request body for sponsor updates. Status is
// not updatable here; approval goes through the approve/reject endpoints.
type UpdateSponsorRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Tier         string `json:"tier"`
}

// @Summary      Update sponsor
// @Tags         Sponsors
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "Sponsor ID"
// @Param        body  body  UpdateSponsorRequest  true  "Sponsor fields"
// @Success      200  {object}  map[string]interface{}  "sponsor: models.Sponsor"
// @Router       /api/v1/sponsors/{id} [put]
func (h *Handlers) Update(c *gin.Context) {
	sponsor, err := h.sponsorRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sponsor"})
		return
	}
	if sponsor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sponsor not found"})
		return
	}

	var req UpdateSponsorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sponsor.Name = req.Name
	sponsor.ContactEmail = req.ContactEmail
	sponsor.Tier = req.Tier
	if err := h.sponsorRepo.Update(c.Request.Context(), sponsor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update sponsor"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sponsor": sponsor})
}

// @Summary      Approve sponsor
// @Description  Move the sponsor to approved. Admin only.
// @Tags         Sponsors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sponsor ID"
// @Success      200  {object}  map[string]interface{}  "sponsor: models.Sponsor"
// @Router       /api/v1/admin/sponsors/{id}/approve [post]
func (h *Handlers) Approve(c *gin.Context) {
	h.setStatus(c, models.ApprovalStatusApproved, audit.ActionSponsorApproved)
}

// @Summary      Reject sponsor
// @Description  Move the sponsor to rejected. Admin only.
// @Tags         Sponsors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sponsor ID"
// @Success      200  {object}  map[string]interface{}  "sponsor: models.Sponsor"
// @Router       /api/v1/admin/sponsors/{id}/reject [post]
func (h *Handlers) Reject(c *gin.Context) {
	h.setStatus(c, models.ApprovalStatusRejected, audit.ActionSponsorRejected)
}

func (h *Handlers) setStatus(c *gin.Context, status string, action audit.Action) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sponsor, err := h.sponsorRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sponsor"})
		return
	}
	if sponsor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sponsor not found"})
		return
	}

	if err := h.sponsorRepo.SetStatus(c.Request.Context(), sponsor.ID, status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update sponsor status"})
		return
	}

	h.record(c, caller, action, sponsor.ID, map[string]interface{}{
		"from": sponsor.Status,
		"to":   status,
	})
	sponsor.Status = status
	c.JSON(http.StatusOK, gin.H{"sponsor": sponsor})
}

// @Summary      Delete sponsor
// @Tags         Sponsors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sponsor ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/sponsors/{id} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	if err := h.sponsorRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete sponsor"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

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
