package handler

import (
	"net/http"

	"guardian/internal/auth"
	"guardian/internal/config"

	"go.uber.org/zap"
)

type SessionHandler struct {
	Svc *auth.Service
	Cfg config.Config
	Log *zap.Logger
}

func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, toUserResp(user))
}

// Refresh mints a new credential before the current one expires. The old
// credential remains valid until its own expiry.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	credential, err := h.Svc.Refresh(user)
	if err != nil {
		h.Log.Error("refresh failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": credential,
		"token_type":   "bearer",
		"expires_in":   int(h.Cfg.SessionExpiry.Seconds()),
		"user":         toUserResp(user),
	})
}

// Logout only confirms the action. Credentials are stateless, so the
// client discards its copy; nothing is revoked server-side.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "successfully logged out",
	})
}
