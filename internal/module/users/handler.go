package users

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/pkg"
)

// Handler serves the users REST API.
type Handler struct {
	svc          *Service
	defaultLimit int
	maxLimit     int
}

// NewHandler creates a Handler paging with the given limits.
func NewHandler(svc *Service, defaultLimit, maxLimit int) *Handler {
	return &Handler{svc: svc, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// List handles GET /api/v1/users.
func (h *Handler) List(c *gin.Context) {
	q := pkg.ParseQuery(c, h.defaultLimit, h.maxLimit)
	result, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Page(c, result)
}

// Get handles GET /api/v1/users/:id.
func (h *Handler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, user)
}

// Create handles POST /api/v1/users.
func (h *Handler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	user, err := h.svc.Create(c.Request.Context(), req.Draft())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Created(c, user)
}

// Update handles PUT /api/v1/users/:id.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.Patch())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, user)
}

// Block handles PUT /api/v1/users/:id/block.
func (h *Handler) Block(c *gin.Context) {
	var req BlockRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetBlocked(c.Request.Context(), c.Param("id"), req.Blocked); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, gin.H{"blocked": req.Blocked})
}

// Delete handles DELETE /api/v1/users/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

// Export handles GET /api/v1/users/export?format=csv|xlsx|pdf.
func (h *Handler) Export(c *gin.Context) {
	if err := pkg.Export(c, Name, h.svc.Export); err != nil {
		pkg.Error(c, err)
	}
}
