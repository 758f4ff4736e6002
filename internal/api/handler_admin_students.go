package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/store"
)

// AdminListStudents searches students by name or code with optional filters.
func (h *Handler) AdminListStudents(c *gin.Context) {
	f := store.StudentFilter{Query: c.Query("q")}
	var ok bool
	if f.Payed, ok = boolQuery(c, "payed"); !ok {
		return
	}
	if f.Placed, ok = boolQuery(c, "placed"); !ok {
		return
	}
	if f.DormID, ok = int64Query(c, "dorm_id"); !ok {
		return
	}
	if f.BlockID, ok = int64Query(c, "block_id"); !ok {
		return
	}
	if f.Page, ok = pageQuery(c); !ok {
		return
	}

	page, err := h.store.ListStudents(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminUpdateStudent patches the payment, active and staff flags.
func (h *Handler) AdminUpdateStudent(c *gin.Context) {
	id, ok := idParam(c, "student_id")
	if !ok {
		return
	}
	var patch store.StudentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request")
		return
	}
	student, err := h.store.UpdateStudentFlags(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// AdminDeleteStudent deletes an account.
func (h *Handler) AdminDeleteStudent(c *gin.Context) {
	id, ok := idParam(c, "student_id")
	if !ok {
		return
	}
	if err := h.store.DeleteStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	RoomID int64 `json:"room_id" binding:"required"`
}

// AdminAssignRoom places a student on their behalf. Capacity is still enforced.
func (h *Handler) AdminAssignRoom(c *gin.Context) {
	id, ok := idParam(c, "student_id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	a, err := h.booking.AssignByStaff(c.Request.Context(), id, req.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AdminVacateStudent clears a student's room.
func (h *Handler) AdminVacateStudent(c *gin.Context) {
	id, ok := idParam(c, "student_id")
	if !ok {
		return
	}
	if err := h.store.VacateStudent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
