package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormstay/internal/model"
	"dormstay/internal/mw"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription registers or replaces a push subscription of the signed-in student.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	student, _ := mw.CurrentStudent(c)

	subscription := model.PushSubscription{
		Endpoint:  req.Endpoint,
		P256DH:    req.P256DH,
		Auth:      req.Auth,
		StudentID: student.ID,
	}
	if err := h.store.PutSubscription(c.Request.Context(), &subscription); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// GetSubscriptions lists the endpoints registered by the signed-in student.
func (h *Handler) GetSubscriptions(c *gin.Context) {
	student, _ := mw.CurrentStudent(c)
	subs, err := h.store.ListSubscriptions(c.Request.Context(), student.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	endpoints := make([]string, len(subs))
	for i, s := range subs {
		endpoints[i] = s.Endpoint
	}
	c.JSON(http.StatusOK, gin.H{"endpoints": endpoints})
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription removes one of the signed-in student's subscriptions.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	student, _ := mw.CurrentStudent(c)
	if err := h.store.DeleteSubscription(c.Request.Context(), student.ID, req.Endpoint); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
