package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is the common base struct for all domain models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
// Records are identified by a string UUID assigned on insert.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the record has no id yet.
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Default query values for list screens.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Query is the state of a list view: free-text search plus pagination.
type Query struct {
	SearchTerm string `json:"search_term"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
}

// DefaultQuery returns the query a list view starts with.
func DefaultQuery() Query {
	return Query{Page: DefaultPage, Limit: DefaultLimit}
}

// Offset returns the zero-based index of the first record on the page.
func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// PageResult is one page of records together with the total match count.
type PageResult[T any] struct {
	Records    []T   `json:"records"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResult builds a PageResult for q with TotalPages computed from total.
func NewPageResult[T any](records []T, total int64, q Query) *PageResult[T] {
	if records == nil {
		records = []T{}
	}
	return &PageResult[T]{
		Records:    records,
		TotalCount: total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: TotalPages(total, q.Limit),
	}
}

// TotalPages returns max(1, ceil(total/limit)) so a view never shows "page 1 of 0".
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	pages := (total + int64(limit) - 1) / int64(limit)
	return int(pages)
}

// Patch is a partial update keyed by column name.
type Patch map[string]any

// StringList is a list of strings persisted as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

func scanJSON(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Join(errors.New("decode json column"), err)
	}
	return nil
}
