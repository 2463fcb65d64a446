package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Offset pagination defaults for the legacy browse endpoints
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// OffsetRequest represents skip/limit pagination parameters
type OffsetRequest struct {
	Skip  int64 `json:"skip"`
	Limit int64 `json:"limit"`
}

// ParseOffsetPagination parses skip and limit from the query string, clamping bad values
func ParseOffsetPagination(c *gin.Context) OffsetRequest {
	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)), 10, 64)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return OffsetRequest{Skip: skip, Limit: limit}
}

// Page returns the 1-based page number the offset falls on
func (p OffsetRequest) Page() int64 {
	if p.Limit <= 0 {
		return 1
	}
	return p.Skip/p.Limit + 1
}

// ParseBool reads an optional boolean query flag
func ParseBool(c *gin.Context, key string, def bool) bool {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
