package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/foyerhq/foyer-server/internal/audit"
	"github.com/foyerhq/foyer-server/internal/config"
	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/middleware"
	"github.com/foyerhq/foyer-server/internal/service"
)

// AccessHandler serves the public, unauthenticated onboarding endpoints:
// submitting an access request, checking its status, validating an access
// code and redeeming it at signup.
type AccessHandler struct {
	requestService *service.AccessRequestService
	codeService    *service.AccessCodeService
	signupService  *service.SignupService
	authService    *service.AuthService
	captcha        service.CaptchaVerifier
	limiter        *service.RateLimiter
	isProduction   bool
}

func NewAccessHandler(
	requestService *service.AccessRequestService,
	codeService *service.AccessCodeService,
	signupService *service.SignupService,
	authService *service.AuthService,
	captcha service.CaptchaVerifier,
	limiter *service.RateLimiter,
	isProduction bool,
) *AccessHandler {
	return &AccessHandler{
		requestService: requestService,
		codeService:    codeService,
		signupService:  signupService,
		authService:    authService,
		captcha:        captcha,
		limiter:        limiter,
		isProduction:   isProduction,
	}
}

func (h *AccessHandler) Routes(validateLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/api/access-requests", h.SubmitRequest)
	r.Get("/api/access-requests/status", h.RequestStatus)
	r.With(validateLimit).Post("/api/access-codes/validate", h.ValidateCode)
	r.Post("/api/signup", h.Signup)

	return r
}

func (h *AccessHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string  `json:"email" validate:"required,email"`
		Name         string  `json:"name" validate:"required,max=200"`
		Message      *string `json:"message" validate:"omitempty,max=2000"`
		CaptchaToken string  `json:"captchaToken" validate:"required"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.captcha.Verify(r.Context(), req.CaptchaToken, middleware.ClientIP(r))
	if err != nil {
		// Verification service unreachable: the abuse gate fails closed.
		log.Error().Err(err).Msg("captcha verification unavailable")
		writeError(w, apperrors.External("captcha", err))
		return
	}
	if !ok {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventCaptchaRejected, Email: req.Email})
		writeError(w, apperrors.CaptchaFailed())
		return
	}

	email := service.NormalizeEmail(req.Email)
	key := fmt.Sprintf("submit:%s", email)
	allowed, resetAt := h.limiter.CheckLimit(r.Context(), key, config.SubmitRequestLimit, config.SubmitRequestWindow)
	if !allowed {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed, Email: email})
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(time.Until(resetAt).Seconds())+1))
		writeError(w, apperrors.RateLimitExceeded())
		return
	}

	request, err := h.requestService.Submit(r.Context(), req.Email, req.Name, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventRequestSubmitted,
		Email:   request.Email,
		Details: map[string]interface{}{"requestId": request.ID},
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          request.ID,
		"status":      request.Status,
		"requestedAt": request.RequestedAt.Format(time.RFC3339),
	})
}

func (h *AccessHandler) RequestStatus(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, apperrors.MissingRequired("email"))
		return
	}

	request, err := h.requestService.Status(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          request.Status,
		"requestedAt":     request.RequestedAt.Format(time.RFC3339),
		"reviewedAt":      formatTime(request.ReviewedAt),
		"rejectionReason": request.RejectionReason,
	})
}

func (h *AccessHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required,max=64"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.codeService.Validate(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AccessHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string  `json:"code" validate:"required,max=64"`
		Email    string  `json:"email" validate:"required,email"`
		Name     string  `json:"name" validate:"required,max=200"`
		Password *string `json:"password" validate:"omitempty,min=8,max=128"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.signupService.Signup(r.Context(), service.SignupParams{
		Code:     req.Code,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeAccessCodeUsed {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRedemptionConflict, Email: req.Email})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventCodeRedeemed,
		UserID:  user.ID,
		Email:   user.Email,
		Details: map[string]interface{}{"codeId": user.AccessCodeID},
	})

	// Sign the new account in right away
	result, err := h.authService.CreateSession(r.Context(), user)
	if err != nil {
		// The account exists; the client can sign in normally.
		log.Error().Err(err).Str("userId", user.ID).Msg("post-signup session creation failed")
		writeJSON(w, http.StatusCreated, map[string]any{
			"user": formatUser(user),
		})
		return
	}

	middleware.SetSessionCookie(w, result.SessionToken, h.isProduction)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":        formatUser(user),
		"bridgeToken": result.BridgeToken,
	})
}
