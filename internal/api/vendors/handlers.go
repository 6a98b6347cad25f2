// Package vendors implements the vendor registry: registration, lookup, and
// the admin approval workflow. New vendors always enter the registry as
// pending; only the approval endpoints move them to approved or rejected.
package vendors

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

// Handlers bundles the vendor endpoints.
type Handlers struct {
	vendorRepo *repositories.VendorRepository
	recorder   *audit.Recorder
}

// NewHandlers creates the vendor handlers.
func NewHandlers(db *sql.DB, recorder *audit.Recorder) *Handlers {
	return &Handlers{
		vendorRepo: repositories.NewVendorRepository(db),
		recorder:   recorder,
	}
}

func (h *Handlers) record(c *gin.Context, caller *auth.Caller, action audit.Action, vendorID string, metadata map[string]interface{}) {
	_ = h.recorder.Record(&audit.Entry{
		UserID:     caller.ID,
		UserEmail:  caller.Email,
		Action:     action,
		Resource:   audit.ResourceVendor,
		ResourceID: vendorID,
		IPAddress:  audit.ClientIP(c.Request),
		UserAgent:  audit.UserAgent(c.Request),
		Endpoint:   c.Request.URL.Path,
		Status:     audit.StatusSuccess,
		Metadata:   metadata,
	})
}

// RegisterVendorRequest is the request body for vendor registration.
type RegisterVendorRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Category     string `json:"category"`
}

// @Summary      Register vendor
// @Description  Register a vendor in the registry. New vendors start in pending status regardless of the request.
// @Tags         Vendors
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterVendorRequest  true  "Vendor"
// @Success      201  {object}  map[string]interface{}  "vendor: models.Vendor"
// @Router       /api/v1/vendors [post]
func (h *Handlers) Register(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req RegisterVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	vendor := &models.Vendor{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Category:     req.Category,
		CreatedBy:    &caller.ID,
	}
	if err := h.vendorRepo.Create(c.Request.Context(), vendor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register vendor"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"vendor": vendor})
}

// @Summary      Get vendor
// @Tags         Vendors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Vendor ID"
// @Success      200  {object}  map[string]interface{}  "vendor: models.Vendor"
// @Failure      404  {object}  map[string]interface{}  "Vendor not found"
// @Router       /api/v1/vendors/{id} [get]
func (h *Handlers) Get(c *gin.Context) {
	vendor, err := h.vendorRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load vendor"})
		return
	}
	if vendor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

// @Summary      List vendors
// @Tags         Vendors
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "Filter by approval status"
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        per_page  query  int     false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "vendors: []models.Vendor, pagination: map"
// @Router       /api/v1/vendors [get]
func (h *Handlers) List(c *gin.Context) {
	page, perPage := pagination(c)

	var status *string
	if v := c.Query("status"); v != "" {
		status = &v
	}

	vendors, total, err := h.vendorRepo.List(c.Request.Context(), status, perPage, (page-1)*perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vendors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vendors": vendors,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// UpdateVendorRequest is the request body for vendor updates. Status is not
// updatable here; approval goes through the approve/reject endpoints.
type UpdateVendorRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"required,email"`
	Category     string `json:"category"`
}

// @Summary      Update vendor
// @Tags         Vendors
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Vendor ID"
// @Param        body  body  UpdateVendorRequest  true  "Vendor fields"
// @Success      200  {object}  map[string]interface{}  "vendor: models.Vendor"
// @Router       /api/v1/vendors/{id} [put]
func (h *Handlers) Update(c *gin.Context) {
	vendor, err := h.vendorRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load vendor"})
		return
	}
	if vendor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	var req UpdateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	vendor.Name = req.Name
	vendor.ContactEmail = req.ContactEmail
	vendor.Category = req.Category
	if err := h.vendorRepo.Update(c.Request.Context(), vendor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

// @Summary      Approve vendor
// @Description  Move the vendor to approved. Admin only.
// @Tags         Vendors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Vendor ID"
// @Success      200  {object}  map[string]interface{}  "vendor: models.Vendor"
// @Router       /api/v1/admin/vendors/{id}/approve [post]
func (h *Handlers) Approve(c *gin.Context) {
	h.setStatus(c, models.ApprovalStatusApproved, audit.ActionVendorApproved)
}

// @Summary      Reject vendor
// @Description  Move the vendor to rejected. Admin only.
// @Tags         Vendors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Vendor ID"
// @Success      200  {object}  map[string]interface{}  "vendor: models.Vendor"
// @Router       /api/v1/admin/vendors/{id}/reject [post]
func (h *Handlers) Reject(c *gin.Context) {
	h.setStatus(c, models.ApprovalStatusRejected, audit.ActionVendorRejected)
}

func (h *Handlers) setStatus(c *gin.Context, status string, action audit.Action) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	vendor, err := h.vendorRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load vendor"})
		return
	}
	if vendor == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}

	if err := h.vendorRepo.SetStatus(c.Request.Context(), vendor.ID, status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vendor status"})
		return
	}

	h.record(c, caller, action, vendor.ID, map[string]interface{}{
		"from": vendor.Status,
		"to":   status,
	})
	vendor.Status = status
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

// @Summary      Delete vendor
// @Tags         Vendors
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Vendor ID"
// @Success      200  {object}  map[string]interface{}  "ok: true"
// @Router       /api/v1/admin/vendors/{id} [delete]
func (h *Handlers) Delete(c *gin.Context) {
	if err := h.vendorRepo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vendor"})
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
