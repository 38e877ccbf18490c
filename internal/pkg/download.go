package pkg

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/export"
	"github.com/simp-lee/newsdesk/internal/metrics"
)

// Export loads a table and sends it as a download named after collection.
// The "format" query parameter picks csv, xlsx or pdf (csv by default).
// Nothing is written when an error is returned.
func Export(c *gin.Context, collection string, load func(context.Context) (export.Table, error)) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return err
	}
	status := "error"
	defer func() {
		metrics.ExportsTotal.WithLabelValues(collection, string(format), status).Inc()
	}()

	table, err := load(c.Request.Context())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, table); err != nil {
		return domain.NewAppError(domain.CodeInternal, "export failed", err)
	}
	status = "ok"
	Attachment(c, format.Filename(collection, time.Now()), format.ContentType(), buf.Bytes())
	return nil
}

// Attachment sends body as a file download.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, body)
}

// ErrorPage renders the error page matching err. Statuses without a page of
// their own use the 500 page.
func ErrorPage(c *gin.Context, err error) {
	status := domain.HTTPStatusCode(err)
	page := status
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
	default:
		page = http.StatusInternalServerError
	}
	c.HTML(status, fmt.Sprintf("errors/%d.html", page), gin.H{
		"Message": domain.PublicMessage(err, "Something went wrong"),
	})
}
