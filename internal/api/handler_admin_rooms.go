package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/store"
)

// AdminListRooms lists rooms including inactive ones; ?active narrows on the room flag.
func (h *Handler) AdminListRooms(c *gin.Context) {
	f, ok := roomFilter(c)
	if !ok {
		return
	}
	f.IncludeInactive = true
	if f.Active, ok = boolQuery(c, "active"); !ok {
		return
	}
	page, err := h.store.ListRooms(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminGetRoom returns a room with its occupants.
func (h *Handler) AdminGetRoom(c *gin.Context) {
	id, ok := idParam(c, "room_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	room, err := h.store.GetRoomView(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	occupants, err := h.store.RoomOccupants(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "occupants": occupants})
}

// AdminUpdateRoom patches number, cost, capacity or the active flag.
func (h *Handler) AdminUpdateRoom(c *gin.Context) {
	id, ok := idParam(c, "room_id")
	if !ok {
		return
	}
	var patch store.RoomPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request")
		return
	}
	room, err := h.store.UpdateRoom(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// AdminDeleteRoom deletes a room; its occupants become unplaced.
func (h *Handler) AdminDeleteRoom(c *gin.Context) {
	id, ok := idParam(c, "room_id")
	if !ok {
		return
	}
	if err := h.store.DeleteRoom(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
