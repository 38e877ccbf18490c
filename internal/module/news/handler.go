package news

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/pkg"
)

// Handler serves the news REST API.
type Handler struct {
	svc          *Service
	defaultLimit int
	maxLimit     int
}

// NewHandler creates a Handler paging with the given limits.
func NewHandler(svc *Service, defaultLimit, maxLimit int) *Handler {
	return &Handler{svc: svc, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// List handles GET /api/v1/news.
func (h *Handler) List(c *gin.Context) {
	q := pkg.ParseQuery(c, h.defaultLimit, h.maxLimit)
	result, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Page(c, result)
}

// Get handles GET /api/v1/news/:id.
func (h *Handler) Get(c *gin.Context) {
	article, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, article)
}

// Create handles POST /api/v1/news.
func (h *Handler) Create(c *gin.Context) {
	var req ArticleRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	draft, err := req.Draft(h.svc.Now())
	if err == nil {
		var article *domain.Article
		if article, err = h.svc.Create(c.Request.Context(), draft); err == nil {
			pkg.Created(c, article)
			return
		}
	}
	pkg.Error(c, err)
}

// Update handles PUT /api/v1/news/:id.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateArticleRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	patch, err := req.Patch(h.svc.Now())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	article, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, article)
}

// Delete handles DELETE /api/v1/news/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

// BulkDelete handles POST /api/v1/news/bulk-delete.
func (h *Handler) BulkDelete(c *gin.Context) {
	var req BulkRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	if err := h.svc.BulkDelete(c.Request.Context(), req.IDs); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, gin.H{"deleted": len(req.IDs)})
}

// BulkNotify handles POST /api/v1/news/bulk-notify.
func (h *Handler) BulkNotify(c *gin.Context) {
	var req BulkRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}
	if err := h.svc.MarkNotified(c.Request.Context(), req.IDs); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, gin.H{"notified": len(req.IDs)})
}

// UploadImage handles POST /api/v1/news/images with a multipart "image"
// field and returns the public URL.
func (h *Handler) UploadImage(c *gin.Context) {
	data, err := readImage(c)
	if err == nil {
		var url string
		if url, err = h.svc.UploadImage(c.Request.Context(), data); err == nil {
			pkg.Created(c, gin.H{"url": url})
			return
		}
	}
	pkg.Error(c, err)
}

// Export handles GET /api/v1/news/export?format=csv|xlsx|pdf.
func (h *Handler) Export(c *gin.Context) {
	if err := pkg.Export(c, Name, h.svc.Export); err != nil {
		pkg.Error(c, err)
	}
}

// readImage returns the multipart "image" file.
func readImage(c *gin.Context) ([]byte, error) {
	data, err := optionalImage(c)
	if err == nil && data == nil {
		err = domain.Validation("image is required")
	}
	return data, err
}

// optionalImage returns the multipart "image" file, or nil when none was sent.
func optionalImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Validation("image could not be read")
	}
	if fh.Size == 0 {
		return nil, nil
	}
	if fh.Size > MaxImageSize {
		return nil, domain.Validation("image must be at most 5 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, uploadFailed, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, uploadFailed, err)
	}
	return data, nil
}
