package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"guardian/internal/auth"
	"guardian/internal/config"
	"guardian/internal/mail"

	"go.uber.org/zap"
)

type AuthHandler struct {
	Svc *auth.Service
	Cfg config.Config
	Log *zap.Logger
}

type requestCodeReq struct {
	Email string `json:"email"`
}

type redeemReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type userResp struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Active    bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func toUserResp(u *auth.User) userResp {
	return userResp{
		ID:        u.ID.String(),
		Email:     u.Email,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// RequestCode handles POST /auth/request-code. Whatever happened
// internally, a non-throttled, non-rejected request gets the same body, so
// the response never confirms that an account exists.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	err := h.Svc.RequestCode(r.Context(), req.Email)

	var rateErr *auth.RateLimitedError
	switch {
	case errors.Is(err, auth.ErrBadEmail):
		http.Error(w, "invalid email", http.StatusBadRequest)
	case errors.As(err, &rateErr):
		retryAfter := int(rateErr.RetryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"detail":      "too many requests",
			"retry_after": retryAfter,
		})
	case errors.Is(err, auth.ErrEmailNotAllowed):
		http.Error(w, "email not authorized", http.StatusForbidden)
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":            "If the email exists, a login code has been sent",
			"email":              mail.MaskEmail(auth.NormalizeEmail(req.Email)),
			"expires_in_minutes": int(h.Cfg.CodeExpiry.Minutes()),
		})
	}
}

// Redeem handles POST /auth/redeem. Wrong, expired, used and
// unknown-email codes all answer the same 401.
func (h *AuthHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	credential, user, err := h.Svc.RedeemCode(r.Context(), req.Email, req.Code)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrBadEmail), errors.Is(err, auth.ErrBadCode):
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrInvalidCode):
		http.Error(w, "invalid email or code", http.StatusUnauthorized)
		return
	default:
		h.Log.Error("redeem failed", zap.Error(err))
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
