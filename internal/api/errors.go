package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dormstay/internal/booking"
	"dormstay/internal/store"
)

// denialStatus picks the HTTP status for a refused booking from its first reason.
func denialStatus(d *booking.Denial) int {
	if len(d.Reasons) == 0 {
		return http.StatusConflict
	}
	switch d.Reasons[0].Kind {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindUnauthorized, booking.KindWindowNotOpen, booking.KindWindowClosed:
		return http.StatusForbidden
	}
	return http.StatusConflict
}

// respondError writes err with the status matching its kind. Unknown errors
// are logged and reported with a generic message.
func respondError(c *gin.Context, err error) {
	var denial *booking.Denial
	switch {
	case errors.As(err, &denial):
		c.AbortWithStatusJSON(denialStatus(denial), gin.H{"error": "booking denied", "reasons": denial.Reasons})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalid):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrProtected), errors.Is(err, store.ErrDuplicate):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "the server is busy, please try again"})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(499)
	default:
		_ = c.Error(err)
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
