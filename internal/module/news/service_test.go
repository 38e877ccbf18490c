package news

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/newsdesk/internal/blob"
	"github.com/simp-lee/newsdesk/internal/domain"
	"github.com/simp-lee/newsdesk/internal/store"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

// setupTestDB creates an in-memory SQLite database with every table migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *blob.LocalStore) {
	t.Helper()
	blobs, err := blob.NewLocalStore(t.TempDir(), "/media", []string{ImageBucket})
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	svc := NewService(NewCollection(setupTestDB(t)), blobs)
	svc.now = func() time.Time { return fixedNow }
	return svc, blobs
}

func seedArticles(t *testing.T, svc *Service, n int) []domain.Article {
	t.Helper()
	out := make([]domain.Article, 0, n)
	for i := range n {
		draft, err := ArticleRequest{
			Title:       fmt.Sprintf("Story %02d", i),
			Summary:     "summary",
			PublishedAt: fixedNow.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
		}.Draft(fixedNow)
		if err != nil {
			t.Fatalf("draft %d: %v", i, err)
		}
		a, err := svc.Create(context.Background(), draft)
		if err != nil {
			t.Fatalf("seed article %d: %v", i, err)
		}
		out = append(out, *a)
	}
	return out
}

func TestService_ListLatestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	seedArticles(t, svc, 3)

	page, err := svc.List(t.Context(), domain.DefaultQuery())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 3 || page.Records[0].Title != "Story 02" {
		t.Errorf("page = %d records, first %q", page.TotalCount, page.Records[0].Title)
	}

	q := domain.DefaultQuery()
	q.SearchTerm = "story 01"
	page, err = svc.List(t.Context(), q)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 1 || page.Records[0].Title != "Story 01" {
		t.Errorf("search: %+v", page.Records)
	}
}

func TestService_CreateRequiresTitle(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(t.Context(), domain.Article{Summary: "no title"})
	if !domain.IsValidation(err) || domain.PublicMessage(err, "") != titleRequired {
		t.Fatalf("err = %v", err)
	}
}

func TestService_UpdateRegeneratesHeadline(t *testing.T) {
	svc, _ := newTestService(t)
	a := seedArticles(t, svc, 1)[0]

	title := "Rewritten"
	patch, err := UpdateArticleRequest{Title: &title}.Patch(fixedNow)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	got, err := svc.Update(t.Context(), a.ID, patch)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "Rewritten" || got.HeadlineText() != "Rewritten" {
		t.Errorf("got title %q headline %q", got.Title, got.HeadlineText())
	}
}

func TestService_MarkNotifiedIsAllOrNothing(t *testing.T) {
	svc, _ := newTestService(t)
	as := seedArticles(t, svc, 2)

	err := svc.MarkNotified(t.Context(), []string{as[0].ID, "missing"})
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v; want not found", err)
	}
	if a, _ := svc.Get(t.Context(), as[0].ID); a.Notified {
		t.Fatal("partial batch must not be applied")
	}

	if err := svc.MarkNotified(t.Context(), []string{as[0].ID, as[1].ID}); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	for _, a := range as {
		if got, _ := svc.Get(t.Context(), a.ID); !got.Notified {
			t.Errorf("%s not notified", a.ID)
		}
	}
	if err := svc.MarkNotified(t.Context(), nil); !domain.IsValidation(err) {
		t.Errorf("empty ids: err = %v", err)
	}
}

func TestService_UploadImage(t *testing.T) {
	svc, _ := newTestService(t)

	url, err := svc.UploadImage(t.Context(), pngHeader)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(url, "/media/news-images/news/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q", url)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not an image", []byte("%PDF-1.4 hello")},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, MaxImageSize)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UploadImage(t.Context(), tt.data); !domain.IsValidation(err) {
				t.Errorf("err = %v; want validation error", err)
			}
		})
	}
}

func TestService_Export(t *testing.T) {
	svc, _ := newTestService(t)
	seedArticles(t, svc, 2)

	table, err := svc.Export(t.Context())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(table.Rows) != 2 || table.Rows[0][1] != "Story 01" || table.Rows[0][2] != "Story 01" {
		t.Errorf("rows = %v", table.Rows)
	}
	if len(table.Headers) != len(table.Rows[0]) {
		t.Errorf("headers %d, row %d", len(table.Headers), len(table.Rows[0]))
	}
}
