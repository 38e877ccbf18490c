package news

import (
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/simp-lee/newsdesk/internal/domain"
)

var (
	// summaries keep basic formatting, every other field is plain text.
	summaryPolicy = bluemonday.UGCPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

// publishedLayouts are accepted for published_at, the second one being what
// an <input type="datetime-local"> posts.
var publishedLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ArticleRequest is the body of an article creation.
type ArticleRequest struct {
	Title       string `json:"title" form:"title" binding:"max=500"`
	Summary     string `json:"summary" form:"summary" binding:"max=20000"`
	ImageURL    string `json:"image_url" form:"image_url" binding:"omitempty,url,max=1000"`
	SourceURL   string `json:"source_url" form:"source_url" binding:"omitempty,url,max=1000"`
	Source      string `json:"source" form:"source" binding:"max=200"`
	Topics      string `json:"topics" form:"topics" binding:"max=500"`
	Categories  string `json:"categories" form:"categories" binding:"max=1000"`
	PublishedAt string `json:"published_at" form:"published_at"`
}

// Draft returns the article the request describes. published_at defaults
// to now and the headline starts as the title.
func (r ArticleRequest) Draft(now time.Time) (domain.Article, error) {
	published := now
	if strings.TrimSpace(r.PublishedAt) != "" {
		t, err := parsePublished(r.PublishedAt)
		if err != nil {
			return domain.Article{}, err
		}
		published = t
	}
	title := clean(r.Title)
	a := domain.Article{
		Title:       title,
		Summary:     strings.TrimSpace(summaryPolicy.Sanitize(r.Summary)),
		ImageURL:    strings.TrimSpace(r.ImageURL),
		SourceURL:   strings.TrimSpace(r.SourceURL),
		Source:      clean(r.Source),
		Topics:      clean(r.Topics),
		Categories:  domain.ParseCategories(clean(r.Categories)),
		PublishedAt: published,
	}
	if title != "" {
		a.Headline = domain.Headlines{{Text: title, GeneratedAt: now.UTC().Format(time.RFC3339)}}
	}
	return a, nil
}

// UpdateArticleRequest is the body of an article update. Only the fields
// present are changed.
type UpdateArticleRequest struct {
	Title       *string `json:"title" form:"title" binding:"omitempty,max=500"`
	Summary     *string `json:"summary" form:"summary" binding:"omitempty,max=20000"`
	ImageURL    *string `json:"image_url" form:"image_url" binding:"omitempty,max=1000"`
	SourceURL   *string `json:"source_url" form:"source_url" binding:"omitempty,max=1000"`
	Source      *string `json:"source" form:"source" binding:"omitempty,max=200"`
	Topics      *string `json:"topics" form:"topics" binding:"omitempty,max=500"`
	Categories  *string `json:"categories" form:"categories" binding:"omitempty,max=1000"`
	PublishedAt *string `json:"published_at" form:"published_at"`
	Notified    *bool   `json:"notified" form:"notified"`
}

// Patch returns the changed columns. A new title replaces the headline.
func (r UpdateArticleRequest) Patch(now time.Time) (domain.Patch, error) {
	patch := domain.Patch{}
	if r.Title != nil {
		title := clean(*r.Title)
		if title == "" {
			return nil, domain.Validation(titleRequired)
		}
		patch["title"] = title
		patch["headline"] = domain.Headlines{{Text: title, UpdatedAt: now.UTC().Format(time.RFC3339)}}
	}
	if r.Summary != nil {
		patch["summary"] = strings.TrimSpace(summaryPolicy.Sanitize(*r.Summary))
	}
	for col, v := range map[string]*string{"image_url": r.ImageURL, "source_url": r.SourceURL} {
		if v == nil {
			continue
		}
		// Blank clears the link.
		u := strings.TrimSpace(*v)
		if u != "" && !isWebURL(u) {
			return nil, domain.Validation(col + " must be a valid URL")
		}
		patch[col] = u
	}
	if r.Source != nil {
		patch["source"] = clean(*r.Source)
	}
	if r.Topics != nil {
		patch["topics"] = clean(*r.Topics)
	}
	if r.Categories != nil {
		patch["categories"] = domain.ParseCategories(clean(*r.Categories))
	}
	if r.PublishedAt != nil {
		t, err := parsePublished(*r.PublishedAt)
		if err != nil {
			return nil, err
		}
		patch["published_at"] = t
	}
	if r.Notified != nil {
		patch["notified"] = *r.Notified
	}
	if len(patch) == 0 {
		return nil, domain.Validation("nothing to update")
	}
	return patch, nil
}

// BulkRequest names the articles of a bulk action. Without ids the view's
// selection is used.
type BulkRequest struct {
	IDs []string `json:"ids" form:"ids"`
}

func parsePublished(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Validation("published_at must be a date")
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func clean(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}
