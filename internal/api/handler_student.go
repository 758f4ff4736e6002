package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/booking"
	"dormstay/internal/model"
	"dormstay/internal/mw"
	"dormstay/internal/store"
)

type meResponse struct {
	Student model.Student   `json:"student"`
	Room    *store.RoomView `json:"room"`
}

// Me returns the signed-in student with their current placement.
func (h *Handler) Me(c *gin.Context) {
	student, _ := mw.CurrentStudent(c)
	resp := meResponse{Student: student}
	if student.RoomID != nil {
		room, err := h.store.GetRoomView(c.Request.Context(), *student.RoomID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Room = &room
	}
	c.JSON(http.StatusOK, resp)
}

// Eligibility lists every gate the student currently fails.
func (h *Handler) Eligibility(c *gin.Context) {
	student, _ := mw.CurrentStudent(c)
	reasons, window, err := h.booking.Eligibility(c.Request.Context(), student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if reasons == nil {
		reasons = []booking.Reason{}
	}
	c.JSON(http.StatusOK, gin.H{
		"eligible": len(reasons) == 0,
		"reasons":  reasons,
		"window":   window,
	})
}

// roomFilter reads the listing filters shared by the student and admin room listings.
func roomFilter(c *gin.Context) (store.RoomFilter, bool) {
	var f store.RoomFilter
	var ok bool
	if f.DormID, ok = int64Query(c, "dorm_id"); !ok {
		return f, false
	}
	if f.BlockID, ok = int64Query(c, "block_id"); !ok {
		return f, false
	}
	if f.Floor, ok = intQuery(c, "floor"); !ok {
		return f, false
	}
	if f.Page, ok = pageQuery(c); !ok {
		return f, false
	}
	var err error
	if f.Free, err = store.ParseSortOrder(c.Query("free")); err != nil {
		badRequest(c, "free must be asc or desc")
		return f, false
	}
	if f.Cost, err = store.ParseSortOrder(c.Query("cost")); err != nil {
		badRequest(c, "cost must be asc or desc")
		return f, false
	}
	return f, true
}

// ListRooms returns one page of bookable rooms with live free capacity.
func (h *Handler) ListRooms(c *gin.Context) {
	f, ok := roomFilter(c)
	if !ok {
		return
	}
	page, err := h.store.ListRooms(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// BookRoom runs the booking allocator for the signed-in student.
func (h *Handler) BookRoom(c *gin.Context) {
	roomID, ok := idParam(c, "room_id")
	if !ok {
		return
	}
	student, _ := mw.CurrentStudent(c)

	a, err := h.booking.Book(c.Request.Context(), student.ID, roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	msg := fmt.Sprintf("Room %d of block %s (%s) has been reserved for you.", a.Room.Number, a.BlockName, a.DormName)
	if a.Unchanged {
		msg = fmt.Sprintf("You already hold room %d of block %s.", a.Room.Number, a.BlockName)
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "assignment": a})
}
