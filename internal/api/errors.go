package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// writeError maps service errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	if verrs, ok := types.AsValidationErrors(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, verrs)
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		detail(c, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrForbidden):
		detail(c, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, service.ErrInvalidToken):
		detail(c, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, service.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"non_field_errors": []string{"Unable to log in with provided credentials."},
		})
	case service.IsRuleViolation(err):
		detail(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		detail(c, http.StatusInternalServerError, "Internal server error.")
	}
}

// bindJSON decodes the request body into v, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		detail(c, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// parseID reads a numeric path parameter. Anything else is answered with 404
// since no resource can match it.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		detail(c, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return uint(id), true
}
