package handler

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/audiobook-library/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = math.MaxInt32
	defaultTopLimit = 5
	maxTopLimit     = 50
	requestTimeout  = 5 * time.Second
)

// Pagination is the paging block of every list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func newPagination(p model.PageRequest, total int64) Pagination {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

// pageRequest reads ?page= and ?limit= (or its alias ?page_size=).  Missing
// or unparsable values fall back to the defaults; out-of-range values are
// clamped.  The page cap keeps the row offset far from overflowing.
func pageRequest(c echo.Context) model.PageRequest {
	page := clamp(queryInt(c, "page", 1), 1, maxPage)
	limitParam := "limit"
	if c.QueryParam("limit") == "" && c.QueryParam("page_size") != "" {
		limitParam = "page_size"
	}
	return model.PageRequest{Page: page, Limit: clamp(queryInt(c, limitParam, defaultPageSize), 1, maxPageSize)}
}

// topLimit reads ?limit= for the trending and new-release lists.
func topLimit(c echo.Context) int {
	return clamp(queryInt(c, "limit", defaultTopLimit), 1, maxTopLimit)
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// reqCtx bounds the store work of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}
