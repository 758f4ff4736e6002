package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/store"
)

const publicNoticeLimit = 50

// GetDirectory handles GET /api/dorms: active dorms, their active blocks and floors.
func GetDirectory(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		dorms, err := s.Directory(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dorms)
	}
}

// GetNotices handles GET /api/notices.
func GetNotices(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		notices, err := s.ListNotices(c.Request.Context(), publicNoticeLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, notices)
	}
}

// Health pings the database.
func Health(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := s.DB().DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
