package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// idParam parses a positive int64 path parameter.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// int64Query parses an optional int64 query parameter.
func int64Query(c *gin.Context, name string) (*int64, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}

func intQuery(c *gin.Context, name string) (*int, bool) {
	v, ok := int64Query(c, name)
	if !ok || v == nil {
		return nil, ok
	}
	i := int(*v)
	return &i, true
}

func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &v, true
}

func pageQuery(c *gin.Context) (int, bool) {
	p, ok := intQuery(c, "page")
	if !ok {
		return 0, false
	}
	if p == nil {
		return 1, true
	}
	return *p, true
}
