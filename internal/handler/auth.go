package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foyerhq/foyer-server/internal/audit"
	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/middleware"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/service"
)

// AuthHandler serves sign-in, sign-out and the session introspection
// endpoints for existing accounts.
type AuthHandler struct {
	authService  *service.AuthService
	session      *middleware.SessionMiddleware
	isProduction bool
}

func NewAuthHandler(
	authService *service.AuthService,
	session *middleware.SessionMiddleware,
	isProduction bool,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		session:      session,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Routes(loginLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(loginLimit).Post("/api/login", h.Login)
	r.With(loginLimit).Post("/api/magic-link", h.RequestMagicLink)
	r.Post("/api/magic-link/redeem", h.RedeemMagicLink)
	r.Post("/api/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.session.RequireUser)
		r.Get("/api/me", h.Me)
		r.Post("/api/token", h.BridgeToken)
	})

	return r
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.PasswordSignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure, Email: req.Email})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: result.User.ID,
		Email:  result.User.Email,
	})

	middleware.SetSessionCookie(w, result.SessionToken, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        formatUser(result.User),
		"bridgeToken": result.BridgeToken,
	})
}

func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.RequestMagicLink(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventMagicLinkRequested, Email: req.Email})

	// Same response whether or not the email has an account
	writeJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (h *AuthHandler) RedeemMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.MagicLinkSignIn(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventLoginSuccess,
		UserID: result.User.ID,
		Email:  result.User.Email,
	})

	middleware.SetSessionCookie(w, result.SessionToken, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        formatUser(result.User),
		"bridgeToken": result.BridgeToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := h.authService.SignOut(r.Context(), cookie.Value); err != nil {
			writeError(w, err)
			return
		}
		audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout})
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": formatUser(user)})
}

// BridgeToken mints a fresh short-lived token for the backend API.
func (h *AuthHandler) BridgeToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	token, err := h.authService.MintBridgeToken(user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"bridgeToken": token})
}

func formatUser(user *model.User) map[string]any {
	return map[string]any{
		"id":          user.ID,
		"email":       user.Email,
		"name":        user.Name,
		"role":        user.Role,
		"createdAt":   user.CreatedAt.Format(time.RFC3339),
		"lastLoginAt": formatTime(user.LastLoginAt),
	}
}
