package news

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/export"
	"github.com/simp-lee/newsdesk/internal/store"
)

const (
	// ImageBucket holds article images.
	ImageBucket = "news-images"
	// MaxImageSize is the largest accepted upload.
	MaxImageSize = 5 << 20

	titleRequired = "Title is required."
	uploadFailed  = "Image upload failed"
)

// imageTypes maps accepted image content types to file extensions.
var imageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Service implements the news screen.
type Service struct {
	records *store.Collection[domain.Article]
	blobs   domain.BlobStore
	now     func() time.Time
}

// NewService creates a Service storing images in blobs.
func NewService(records *store.Collection[domain.Article], blobs domain.BlobStore) *Service {
	if records == nil || blobs == nil {
		panic("news.NewService: collection and blob store must not be nil")
	}
	return &Service{records: records, blobs: blobs, now: time.Now}
}

// Collection returns the article collection.
func (s *Service) Collection() domain.Collection[domain.Article] {
	return s.records
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// ValidateDraft checks the fields a new article must have.
func ValidateDraft(a domain.Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return domain.Validation(titleRequired)
	}
	return nil
}

// List returns one page of articles, latest publication first.
func (s *Service) List(ctx context.Context, q domain.Query) (*domain.PageResult[domain.Article], error) {
	records, total, err := s.records.Query(ctx, domain.QueryOptions{
		Search:       q.SearchTerm,
		SearchFields: searchFields,
		OrderBy:      "published_at",
		Offset:       q.Offset(),
		Limit:        q.Limit,
	})
	if err != nil {
		return nil, err
	}
	return domain.NewPageResult(records, total, q), nil
}

// Get returns one article.
func (s *Service) Get(ctx context.Context, id string) (*domain.Article, error) {
	return s.records.Get(ctx, id)
}

// Create validates and stores draft.
func (s *Service) Create(ctx context.Context, draft domain.Article) (*domain.Article, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}
	if err := s.records.Insert(ctx, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Update applies patch to an article and returns the stored record.
func (s *Service) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Article, error) {
	if err := s.records.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.records.Get(ctx, id)
}

// Delete removes an article.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.records.Delete(ctx, id)
}

// BulkDelete removes every article of ids or none of them.
func (s *Service) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return domain.Validation("ids must not be empty")
	}
	return s.records.BulkDelete(ctx, ids)
}

// MarkNotified flags every article of ids as sent to subscribers.
func (s *Service) MarkNotified(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return domain.Validation("ids must not be empty")
	}
	return s.records.BulkUpdate(ctx, ids, domain.Patch{"notified": true})
}

// UploadImage stores an article image and returns its public URL. The
// content type is sniffed from data, not taken from the client.
func (s *Service) UploadImage(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.Validation("image is empty")
	}
	if len(data) > MaxImageSize {
		return "", domain.Validation(fmt.Sprintf("image must be at most %d MB", MaxImageSize>>20))
	}
	ext, ok := imageTypes[http.DetectContentType(data)]
	if !ok {
		return "", domain.Validation("image must be a JPEG, PNG, GIF or WebP file")
	}
	url, err := s.blobs.Upload(ctx, ImageBucket, "news/"+uuid.NewString()+"."+ext, data)
	if err != nil {
		if domain.IsValidation(err) {
			return "", err
		}
		return "", domain.NewAppError(domain.CodeInternal, uploadFailed, err)
	}
	return url, nil
}

// Export returns every article, latest publication first.
func (s *Service) Export(ctx context.Context) (export.Table, error) {
	records, err := s.records.List(ctx, domain.QueryOptions{OrderBy: "published_at"})
	if err != nil {
		return export.Table{}, err
	}
	t := export.Table{
		Title:   "News",
		Headers: []string{"ID", "Title", "Headline", "Source", "Source URL", "Topics", "Categories", "Notified", "Published At"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, a := range records {
		t.Rows = append(t.Rows, []string{
			a.ID, a.Title, a.HeadlineText(), a.Source, a.SourceURL, a.Topics,
			strings.Join(a.Categories, ", "), strconv.FormatBool(a.Notified),
			a.PublishedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return t, nil
}
