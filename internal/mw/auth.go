package mw

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dormstay/internal/model"
)

const (
	studentKey = "mw.student"
	tokenKey   = "mw.token"
)

// SessionResolver maps a bearer token onto its student.
type SessionResolver interface {
	StudentForSession(ctx context.Context, token string, now time.Time) (model.Student, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// Auth rejects requests without a live session and stores the student on the context.
func Auth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		student, err := resolver.StudentForSession(c.Request.Context(), token, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or invalid"})
			return
		}
		c.Set(studentKey, student)
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireStaff rejects authenticated students without the staff flag.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := CurrentStudent(c)
		if !ok || !s.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}

// CurrentStudent returns the student set by Auth.
func CurrentStudent(c *gin.Context) (model.Student, bool) {
	v, ok := c.Get(studentKey)
	if !ok {
		return model.Student{}, false
	}
	s, ok := v.(model.Student)
	return s, ok
}

// SessionToken returns the token Auth accepted.
func SessionToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
