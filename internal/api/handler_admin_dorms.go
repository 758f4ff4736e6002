package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/booking"
	"dormstay/internal/model"
)

type dormRequest struct {
	Name     string       `json:"name" binding:"required"`
	Gender   model.Gender `json:"gender" binding:"required"`
	IsActive *bool        `json:"is_active"`
}

func (r dormRequest) toModel() model.Dorm {
	return model.Dorm{Name: r.Name, Gender: r.Gender, IsActive: r.IsActive == nil || *r.IsActive}
}

// AdminListDorms lists every dorm with total capacity and current population.
func (h *Handler) AdminListDorms(c *gin.Context) {
	dorms, err := h.store.ListDorms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dorms)
}

// AdminGetDorm returns one dorm with its totals.
func (h *Handler) AdminGetDorm(c *gin.Context) {
	id, ok := idParam(c, "dorm_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	dorm, err := h.store.GetDorm(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	totals, err := h.store.DormTotals(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	blocks, err := h.store.ListBlocks(ctx, &id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dorm": dorm, "totals": totals[id], "blocks": blocks})
}

// AdminCreateDorm creates a dorm.
func (h *Handler) AdminCreateDorm(c *gin.Context) {
	var req dormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	dorm := req.toModel()
	if err := h.store.CreateDorm(c.Request.Context(), &dorm); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dorm)
}

// AdminUpdateDorm replaces a dorm's name, gender and active flag.
func (h *Handler) AdminUpdateDorm(c *gin.Context) {
	id, ok := idParam(c, "dorm_id")
	if !ok {
		return
	}
	var req dormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	dorm := req.toModel()
	dorm.ID = id
	if err := h.store.UpdateDorm(c.Request.Context(), &dorm); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dorm)
}

// AdminDeleteDorm deletes a dorm without blocks.
func (h *Handler) AdminDeleteDorm(c *gin.Context) {
	id, ok := idParam(c, "dorm_id")
	if !ok {
		return
	}
	if err := h.store.DeleteDorm(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type blockRequest struct {
	Name                string `json:"name" binding:"required"`
	DormID              int64  `json:"dorm_id" binding:"required"`
	FloorCount          int    `json:"floor_count"`
	RoomsPerFloor       int    `json:"rooms_per_floor"`
	DefaultRoomCapacity *int   `json:"default_room_capacity"`
	RoomCost            int64  `json:"room_cost"`
	SupervisorID        *int64 `json:"supervisor_id"`
	IsActive            *bool  `json:"is_active"`
}

func (r blockRequest) toModel() model.Block {
	capacity := booking.DefaultRoomCapacity
	if r.DefaultRoomCapacity != nil {
		capacity = *r.DefaultRoomCapacity
	}
	return model.Block{
		Name:                r.Name,
		DormID:              r.DormID,
		FloorCount:          r.FloorCount,
		RoomsPerFloor:       r.RoomsPerFloor,
		DefaultRoomCapacity: capacity,
		RoomCost:            r.RoomCost,
		SupervisorID:        r.SupervisorID,
		IsActive:            r.IsActive == nil || *r.IsActive,
	}
}

// AdminListBlocks lists blocks with totals, optionally filtered by dorm_id.
func (h *Handler) AdminListBlocks(c *gin.Context) {
	dormID, ok := int64Query(c, "dorm_id")
	if !ok {
		return
	}
	blocks, err := h.store.ListBlocks(c.Request.Context(), dormID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

// AdminGetBlock returns one block with its totals.
func (h *Handler) AdminGetBlock(c *gin.Context) {
	id, ok := idParam(c, "block_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	block, err := h.store.GetBlock(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	totals, err := h.store.BlockTotals(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"block": block, "totals": totals[id]})
}

// AdminCreateBlock creates a block and generates its rooms.
func (h *Handler) AdminCreateBlock(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	block := req.toModel()
	warning, err := h.store.CreateBlock(c.Request.Context(), &block)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"block": block, "warning": warning})
}

// AdminUpdateBlock replaces a block's settings. Its rooms are left as they are.
func (h *Handler) AdminUpdateBlock(c *gin.Context) {
	id, ok := idParam(c, "block_id")
	if !ok {
		return
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	block := req.toModel()
	block.ID = id
	if err := h.store.UpdateBlock(c.Request.Context(), &block); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

// AdminDeleteBlock deletes a block without rooms.
func (h *Handler) AdminDeleteBlock(c *gin.Context) {
	id, ok := idParam(c, "block_id")
	if !ok {
		return
	}
	if err := h.store.DeleteBlock(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
