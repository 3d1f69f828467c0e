package handlers

import (
	"net/http"
	"strings"

	"mfbank/internal/auth"
	"mfbank/internal/websocket"
)

// WSUpdates upgrades the connection and streams balance and loan updates for
// the authenticated user. Browsers cannot set headers on websocket upgrades,
// so the token may arrive as a query parameter instead.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
