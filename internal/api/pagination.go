package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// parsePage reads ?page= and ?limit=. A page that is not a positive number is
// answered with 404, a bad limit falls back to the default.
func parsePage(c *gin.Context) (types.PageQuery, bool) {
	page := types.PageQuery{Page: 1, Limit: DefaultPageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			detail(c, http.StatusNotFound, "Invalid page.")
			return page, false
		}
		page.Page = n
	}

	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Limit = min(n, MaxPageSize)
		}
	}
	return page, true
}

// writePage answers with {count, next, previous, results}. Pages past the last
// one are answered with 404, except the first page of an empty list.
func writePage[T any](c *gin.Context, baseURL string, page types.PageQuery, total int64, results []T) {
	if page.Page > 1 && int64(page.Offset()) >= total {
		detail(c, http.StatusNotFound, "Invalid page.")
		return
	}
	if results == nil {
		results = []T{}
	}

	resp := types.Page[T]{Count: total, Results: results}
	if int64(page.Offset()+len(results)) < total {
		next := pageURL(c, baseURL, page.Page+1)
		resp.Next = &next
	}
	if page.Page > 1 {
		prev := pageURL(c, baseURL, page.Page-1)
		resp.Previous = &prev
	}
	c.JSON(http.StatusOK, resp)
}

// pageURL rebuilds the request URL with another page number. Like DRF, the
// page parameter is dropped for the first page.
func pageURL(c *gin.Context, baseURL string, page int) string {
	query := c.Request.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	url := baseURL + c.Request.URL.Path
	if encoded := query.Encode(); encoded != "" {
		url += "?" + encoded
	}
	return url
}

// recipesLimit reads ?recipes_limit=, ignoring values that are not a
// non-negative number.
func recipesLimit(c *gin.Context) *int {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
