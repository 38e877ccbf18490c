package admins

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// Handler serves the admins REST API.
type Handler struct {
	svc          *Service
	defaultLimit int
	maxLimit     int
}

// NewHandler creates a Handler paging with the given limits.
func NewHandler(svc *Service, defaultLimit, maxLimit int) *Handler {
	return &Handler{svc: svc, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// List handles GET /api/v1/admins.
func (h *Handler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), pkg.ParseQuery(c, h.defaultLimit, h.maxLimit))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Page(c, result)
}

// Get handles GET /api/v1/admins/:id.
func (h *Handler) Get(c *gin.Context) {
	admin, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, admin)
}

// Create handles POST /api/v1/admins.
func (h *Handler) Create(c *gin.Context) {
	var req CreateAdminRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	admin, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, admin)
}

// Update handles PUT /api/v1/admins/:id.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateAdminRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		pkg.Error(c, err)
		return
	}
	admin, err := h.svc.Update(c.Request.Context(), middleware.CurrentSession(c), c.Param("id"), patch)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, admin)
}

// Delete handles DELETE /api/v1/admins/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentSession(c), c.Param("id")); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

// Export handles GET /api/v1/admins/export.
func (h *Handler) Export(c *gin.Context) {
	if err := pkg.Export(c, Name, h.svc.Export); err != nil {
		pkg.Error(c, err)
	}
}
