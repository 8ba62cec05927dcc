package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"sensor-dashboard-backend/internal/auth"
	"sensor-dashboard-backend/internal/session"
	"sensor-dashboard-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	sessions *session.Service
	tokens   *auth.Tokens
	password string
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, sessions *session.Service, tokens *auth.Tokens, adminPassword string, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		sessions: sessions,
		tokens:   tokens,
		password: adminPassword,
		webpush:  webpushOptions,
	}
}
