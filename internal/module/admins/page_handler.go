package admins

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/liveview"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// RowsTemplate is the partial rendering the admins table.
const RowsTemplate = "admins/rows"

// PageHandler serves the admins screen.
type PageHandler struct {
	svc  *Service
	live *liveview.Handler[domain.Profile]
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(svc *Service, live *liveview.Handler[domain.Profile]) *PageHandler {
	return &PageHandler{svc: svc, live: live}
}

// ListPage renders the admins screen.
// GET /admins
func (h *PageHandler) ListPage(c *gin.Context) {
	live := h.live.View(c)
	c.HTML(http.StatusOK, "admins/list.html", gin.H{
		"Title":     "Admins",
		"Nav":       Name,
		"Rows":      h.live.Data(c, live),
		"Roles":     domain.StaffRoles,
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// EditPage renders the edit form of one staff account.
// GET /admins/:id/edit
func (h *PageHandler) EditPage(c *gin.Context) {
	admin, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.ErrorPage(c, err)
		return
	}
	c.HTML(http.StatusOK, "admins/edit.html", gin.H{
		"Title":     "Edit admin",
		"Nav":       Name,
		"Admin":     admin,
		"Roles":     domain.StaffRoles,
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// Create handles the create form.
// POST /admins
func (h *PageHandler) Create(c *gin.Context) {
	live := h.live.View(c)
	var req CreateAdminRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("Please check the form fields."))
		return
	}
	err := live.CreateWith(c.Request.Context(), req.Draft(), func(ctx context.Context, _ domain.Profile) error {
		_, err := h.svc.Create(ctx, req)
		return err
	})
	h.live.Result(c, live, err)
}

// Update handles the edit form and returns to the list on success.
// PUT /admins/:id
func (h *PageHandler) Update(c *gin.Context) {
	live := h.live.View(c)
	var req UpdateAdminRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("Please check the form fields."))
		return
	}
	id := c.Param("id")
	patch, err := req.Patch()
	if err == nil {
		err = CheckUpdate(middleware.CurrentSession(c), id, patch)
	}
	if err == nil {
		err = live.Update(c.Request.Context(), id, patch)
	}
	if err != nil {
		h.live.Fail(c, live, err)
		return
	}
	h.live.Redirect(c, live, "/admins")
}

// Delete removes one staff account.
// DELETE /admins/:id
func (h *PageHandler) Delete(c *gin.Context) {
	live := h.live.View(c)
	id := c.Param("id")
	if err := CheckDelete(middleware.CurrentSession(c), id); err != nil {
		h.live.Fail(c, live, err)
		return
	}
	err := live.Remove(c.Request.Context(), id)
	h.live.Result(c, live, err)
}

// Export downloads every staff account.
// GET /admins/export
func (h *PageHandler) Export(c *gin.Context) {
	if err := pkg.Export(c, Name, h.svc.Export); err != nil {
		pkg.ErrorPage(c, err)
	}
}
