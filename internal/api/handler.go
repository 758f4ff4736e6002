package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"dormstay/internal/booking"
	"dormstay/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	booking    *booking.Service
	webpush    *webpush.Options
	sessionTTL time.Duration
	now        func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *booking.Service, webpushOptions *webpush.Options, sessionTTL time.Duration) *Handler {
	return &Handler{
		store:      s,
		booking:    svc,
		webpush:    webpushOptions,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}
