package handler

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// listQuery is the paging and sorting block shared by every list endpoint
type listQuery struct {
	Search   string
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
}

func parseListQuery(c *gin.Context) listQuery {
	return listQuery{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     cast.ToInt(c.Query("page")),
		PageSize: cast.ToInt(c.Query("page_size")),
		OrderBy:  c.Query("order_by"),
		OrderDir: c.Query("order_dir"),
	}
}

// queryBool reads an optional boolean query parameter. Absent or
// unparseable values yield nil.
func queryBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return nil
	}
	return &b
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}
	return n
}

// queryUUID reads an optional UUID query parameter. ok is false when the
// value is present but malformed.
func queryUUID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}

// queryTime parses an optional date or timestamp in loc. Plain dates
// resolve to local midnight.
func queryTime(c *gin.Context, key string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// dateRange parses from/to. An inclusive "to" date is widened to the
// start of the following day so the bound becomes exclusive.
func dateRange(c *gin.Context, loc *time.Location) (from, to *time.Time, err error) {
	if from, err = queryTime(c, "from", loc); err != nil {
		return nil, nil, err
	}
	if to, err = queryTime(c, "to", loc); err != nil {
		return nil, nil, err
	}
	if to != nil && isMidnight(*to) {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	return from, to, nil
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// normalizePage mirrors the defaults the services apply so the response
// meta matches the page actually returned.
func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
