package pkg

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/newsdesk/internal/domain"
)

// ParseQuery extracts search and pagination parameters from the request.
// "q" and "search" are accepted for the term; page and limit fall back to the
// defaults when missing or invalid and limit is capped at maxLimit.
func ParseQuery(c *gin.Context, defaultLimit, maxLimit int) domain.Query {
	q := domain.DefaultQuery()
	if defaultLimit > 0 {
		q.Limit = defaultLimit
	}

	term := c.Query("q")
	if term == "" {
		term = c.Query("search")
	}
	q.SearchTerm = strings.TrimSpace(term)

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 1 {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit >= 1 {
		q.Limit = limit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return q
}

// ParseIDs collects record ids from the "ids" form field, accepting both
// repeated fields and comma separated values. Blank entries are dropped.
func ParseIDs(c *gin.Context) []string {
	var ids []string
	for _, raw := range c.PostFormArray("ids") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
