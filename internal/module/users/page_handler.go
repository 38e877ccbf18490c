package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/liveview"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// RowsTemplate is the partial rendering the users table.
const RowsTemplate = "users/rows"

// PageHandler serves the users screen.
type PageHandler struct {
	svc  *Service
	live *liveview.Handler[domain.Profile]
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(svc *Service, live *liveview.Handler[domain.Profile]) *PageHandler {
	return &PageHandler{svc: svc, live: live}
}

// ListPage renders the users screen.
// GET /users
func (h *PageHandler) ListPage(c *gin.Context) {
	live := h.live.View(c)
	c.HTML(http.StatusOK, "users/list.html", gin.H{
		"Title":     "Users",
		"Nav":       Name,
		"Rows":      h.live.Data(c, live),
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// EditPage renders the edit form of one user.
// GET /users/:id/edit
func (h *PageHandler) EditPage(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.ErrorPage(c, err)
		return
	}
	c.HTML(http.StatusOK, "users/edit.html", gin.H{
		"Title":     "Edit user",
		"Nav":       Name,
		"User":      user,
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// Create handles the create form.
// POST /users
func (h *PageHandler) Create(c *gin.Context) {
	live := h.live.View(c)
	var req CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("Please check the form fields."))
		return
	}
	err := live.Create(c.Request.Context(), req.Draft())
	h.live.Result(c, live, err)
}

// Update handles the edit form and returns to the list on success.
// PUT /users/:id
func (h *PageHandler) Update(c *gin.Context) {
	live := h.live.View(c)
	var req UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("Please check the form fields."))
		return
	}
	patch := req.Patch()
	err := ValidatePatch(patch)
	if err == nil {
		err = live.Update(c.Request.Context(), c.Param("id"), patch)
	}
	if err != nil {
		h.live.Fail(c, live, err)
		return
	}
	h.live.Redirect(c, live, "/users")
}

// Block toggles the blocked flag from the table.
// POST /users/:id/block
func (h *PageHandler) Block(c *gin.Context) {
	live := h.live.View(c)
	var req BlockRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("blocked must be true or false"))
		return
	}
	ctx := c.Request.Context()
	err := live.Update(ctx, c.Param("id"), domain.Patch{"blocked": req.Blocked})
	if err == nil && live.View().Query.Page != 1 {
		// Update only refreshes page 1; the toggled row is on this one.
		live.Fetch(ctx)
	}
	h.live.Result(c, live, err)
}

// Delete removes one user.
// DELETE /users/:id
func (h *PageHandler) Delete(c *gin.Context) {
	live := h.live.View(c)
	err := live.Remove(c.Request.Context(), c.Param("id"))
	h.live.Result(c, live, err)
}

// BulkDelete removes the posted ids, or the current selection.
// POST /users/bulk-delete
func (h *PageHandler) BulkDelete(c *gin.Context) {
	live := h.live.View(c)
	ids := pkg.ParseIDs(c)
	if len(ids) == 0 {
		ids = live.Selection()
	}
	if len(ids) == 0 {
		h.live.Fail(c, live, domain.Validation("Select at least one user."))
		return
	}
	err := live.BulkRemove(c.Request.Context(), ids)
	h.live.Result(c, live, err)
}

// Export downloads every user.
// GET /users/export
func (h *PageHandler) Export(c *gin.Context) {
	if err := pkg.Export(c, Name, h.svc.Export); err != nil {
		pkg.ErrorPage(c, err)
	}
}
