package news

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/liveview"
	"github.com/simp-lee/newsdesk/internal/middleware"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// RowsTemplate is the partial rendering the news table.
const RowsTemplate = "news/rows"

// PageHandler serves the news screen.
type PageHandler struct {
	svc  *Service
	live *liveview.Handler[domain.Article]
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(svc *Service, live *liveview.Handler[domain.Article]) *PageHandler {
	return &PageHandler{svc: svc, live: live}
}

// ListPage renders the news screen.
// GET /news
func (h *PageHandler) ListPage(c *gin.Context) {
	live := h.live.View(c)
	c.HTML(http.StatusOK, "news/list.html", gin.H{
		"Title":     "News",
		"Nav":       Name,
		"Rows":      h.live.Data(c, live),
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// EditPage renders the edit form of one article.
// GET /news/:id/edit
func (h *PageHandler) EditPage(c *gin.Context) {
	article, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.ErrorPage(c, err)
		return
	}
	c.HTML(http.StatusOK, "news/edit.html", gin.H{
		"Title":     "Edit article",
		"Nav":       Name,
		"Article":   article,
		"Session":   middleware.CurrentSession(c),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// Create handles the create form. The draft is validated before an
// attached image is uploaded, so a rejected form stores nothing.
// POST /news
func (h *PageHandler) Create(c *gin.Context) {
	live := h.live.View(c)
	var req ArticleRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("Please check the form fields."))
		return
	}
	ctx := c.Request.Context()
	draft, err := req.Draft(h.svc.Now())
	if err == nil {
		err = ValidateDraft(draft)
	}
	if err != nil {
		h.live.Fail(c, live, err)
		return
	}
	image, err := h.image(c)
	if err != nil {
		h.live.Fail(c, live, err)
		return
	}
	if image != "" {
		draft.ImageURL = image
	}
	err = live.Create(ctx, draft)
	h.live.Result(c, live, err)
}

// Update handles the edit form and returns to the list on success.
// PUT /news/:id
func (h *PageHandler) Update(c *gin.Context) {
	live := h.live.View(c)
	var req UpdateArticleRequest
	if err := c.ShouldBind(&req); err != nil {
		h.live.Fail(c, live, domain.Validation("Please check the form fields."))
		return
	}
	image, err := h.image(c)
	if err != nil {
		h.live.Fail(c, live, err)
		return
	}
	if image != "" {
		req.ImageURL = &image
	}
	patch, err := req.Patch(h.svc.Now())
	if err == nil {
		err = live.Update(c.Request.Context(), c.Param("id"), patch)
	}
	if err != nil {
		h.live.Fail(c, live, err)
		return
	}
	h.live.Redirect(c, live, "/news")
}

// Delete removes one article.
// DELETE /news/:id
func (h *PageHandler) Delete(c *gin.Context) {
	live := h.live.View(c)
	err := live.Remove(c.Request.Context(), c.Param("id"))
	h.live.Result(c, live, err)
}

// BulkDelete removes the posted ids, or the current selection.
// POST /news/bulk-delete
func (h *PageHandler) BulkDelete(c *gin.Context) {
	live := h.live.View(c)
	ids := h.targets(c, live.Selection)
	if len(ids) == 0 {
		h.live.Fail(c, live, domain.Validation("Select at least one article."))
		return
	}
	err := live.BulkRemove(c.Request.Context(), ids)
	h.live.Result(c, live, err)
}

// BulkNotify marks the posted ids, or the current selection, as notified.
// POST /news/bulk-notify
func (h *PageHandler) BulkNotify(c *gin.Context) {
	live := h.live.View(c)
	ids := h.targets(c, live.Selection)
	if len(ids) == 0 {
		h.live.Fail(c, live, domain.Validation("Select at least one article."))
		return
	}
	err := live.BulkApply(c.Request.Context(), ids, domain.Patch{"notified": true})
	h.live.Result(c, live, err)
}

// Export downloads every article.
// GET /news/export
func (h *PageHandler) Export(c *gin.Context) {
	if err := pkg.Export(c, Name, h.svc.Export); err != nil {
		pkg.ErrorPage(c, err)
	}
}

// image uploads the optional "image" file of the form and returns its URL.
func (h *PageHandler) image(c *gin.Context) (string, error) {
	data, err := optionalImage(c)
	if err != nil || data == nil {
		return "", err
	}
	return h.svc.UploadImage(c.Request.Context(), data)
}

func (h *PageHandler) targets(c *gin.Context, selection func() []string) []string {
	if ids := pkg.ParseIDs(c); len(ids) > 0 {
		return ids
	}
	return selection()
}
