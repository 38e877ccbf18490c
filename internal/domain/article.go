package domain

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"
)

// Headline is one generated headline entry of an article.
type Headline struct {
	Text        string `json:"text"`
	GeneratedAt string `json:"generated_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Headlines is persisted as a JSON array.
type Headlines []Headline

// Value implements driver.Valuer.
func (h Headlines) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Headline(h))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (h *Headlines) Scan(src any) error {
	return scanJSON(src, (*[]Headline)(h))
}

// Article is a news item shown in the product feed.
type Article struct {
	BaseModel
	Title       string     `gorm:"size:500;not null" json:"title"`
	Summary     string     `gorm:"type:text" json:"summary"`
	ImageURL    string     `gorm:"size:1000" json:"image_url"`
	SourceURL   string     `gorm:"size:1000" json:"source_url"`
	Source      string     `gorm:"size:200" json:"source"`
	Topics      string     `gorm:"size:500" json:"topics"`
	Categories  StringList `gorm:"type:text" json:"categories"`
	Headline    Headlines  `gorm:"type:text" json:"headline"`
	Notified    bool       `gorm:"not null;default:false;index" json:"notified"`
	PublishedAt time.Time  `gorm:"index" json:"published_at"`
}

// TableName binds Article to the news_articles table.
func (Article) TableName() string {
	return "news_articles"
}

// ArticleID returns the record id; used as the list controller's key func.
func ArticleID(a Article) string {
	return a.ID
}

// HeadlineText returns the latest headline text, or the title when none was generated.
func (a Article) HeadlineText() string {
	if n := len(a.Headline); n > 0 && a.Headline[n-1].Text != "" {
		return a.Headline[n-1].Text
	}
	return a.Title
}

// ParseCategories splits a comma separated list, dropping blanks.
func ParseCategories(s string) StringList {
	parts := strings.Split(s, ",")
	out := make(StringList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
