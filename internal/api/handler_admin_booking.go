package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/model"
	"dormstay/internal/store"
)

// AdminGetWindow returns the booking window.
func (h *Handler) AdminGetWindow(c *gin.Context) {
	w, err := h.store.GetBookingWindow(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// AdminSetWindow replaces both bounds; an omitted bound is open-ended.
func (h *Handler) AdminSetWindow(c *gin.Context) {
	var req store.WindowBounds
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	w, err := h.store.SetBookingWindow(c.Request.Context(), req.StartsAt, req.EndsAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// AdminListEvents pages through the booking audit trail.
func (h *Handler) AdminListEvents(c *gin.Context) {
	studentID, ok := int64Query(c, "student_id")
	if !ok {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	events, err := h.store.ListBookingEvents(c.Request.Context(), studentID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

type noticeRequest struct {
	Title string `json:"title" binding:"required"`
	Text  string `json:"text"`
}

func (h *Handler) AdminCreateNotice(c *gin.Context) {
	var req noticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	notice := model.Notice{Title: req.Title, Text: req.Text}
	if err := h.store.CreateNotice(c.Request.Context(), &notice); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, notice)
}

func (h *Handler) AdminDeleteNotice(c *gin.Context) {
	id, ok := idParam(c, "notice_id")
	if !ok {
		return
	}
	if err := h.store.DeleteNotice(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
