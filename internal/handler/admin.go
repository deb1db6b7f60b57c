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
	"github.com/foyerhq/foyer-server/internal/util"
)

// AdminHandler serves the review and invitation workflows. Every route
// requires an admin session.
type AdminHandler struct {
	requestService    *service.AccessRequestService
	invitationService *service.InvitationService
	codeService       *service.AccessCodeService
	adminService      *service.AdminService
	session           *middleware.SessionMiddleware
}

func NewAdminHandler(
	requestService *service.AccessRequestService,
	invitationService *service.InvitationService,
	codeService *service.AccessCodeService,
	adminService *service.AdminService,
	session *middleware.SessionMiddleware,
) *AdminHandler {
	return &AdminHandler{
		requestService:    requestService,
		invitationService: invitationService,
		codeService:       codeService,
		adminService:      adminService,
		session:           session,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.session.RequireAdmin)

	r.Get("/api/stats", h.Stats)

	r.Get("/api/requests", h.ListRequests)
	r.Get("/api/requests/{id}", h.GetRequest)
	r.Post("/api/requests/{id}/approve", h.ApproveRequest)
	r.Post("/api/requests/{id}/reject", h.RejectRequest)
	r.Post("/api/requests/batch-approve", h.BatchApprove)
	r.Post("/api/requests/batch-invite", h.BatchSendInvitations)

	r.Get("/api/codes", h.ListCodes)
	r.Post("/api/codes", h.InviteDirect)
	r.Post("/api/codes/{id}/resend", h.ResendInvitation)

	return r
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)

	var status *model.RequestStatus
	if s := r.URL.Query().Get("status"); s != "" {
		rs := model.RequestStatus(s)
		if !rs.Valid() {
			writeError(w, apperrors.InvalidInput("status", "must be pending, approved or rejected"))
			return
		}
		status = &rs
	}

	requests, err := h.requestService.List(r.Context(), status, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"limit":    pagination.Limit,
		"offset":   pagination.Offset,
	})
}

func (h *AdminHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.requestService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *AdminHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	request, err := h.requestService.Approve(r.Context(), chi.URLParam(r, "id"), admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventRequestApproved,
		UserID:  admin.ID,
		Details: map[string]interface{}{"requestId": request.ID},
	})

	writeJSON(w, http.StatusOK, request)
}

func (h *AdminHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req struct {
		Reason *string `json:"reason" validate:"omitempty,max=2000"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	request, err := h.requestService.Reject(r.Context(), chi.URLParam(r, "id"), admin.ID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventRequestRejected,
		UserID:  admin.ID,
		Details: map[string]interface{}{"requestId": request.ID},
	})

	writeJSON(w, http.StatusOK, request)
}

func (h *AdminHandler) BatchApprove(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req struct {
		RequestIDs []string `json:"requestIds" validate:"required,min=1,max=100,dive,uuid"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	count, err := h.requestService.BatchApprove(r.Context(), req.RequestIDs, admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requested": len(req.RequestIDs),
		"approved":  count,
	})
}

func (h *AdminHandler) BatchSendInvitations(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req struct {
		RequestIDs []string `json:"requestIds" validate:"required,min=1,max=100,dive,uuid"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	outcome := h.invitationService.BatchSendInvitations(r.Context(), req.RequestIDs, admin.ID)

	for _, result := range outcome.Results {
		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventInvitationSent,
			UserID: admin.ID,
			Email:  result.Email,
			Details: map[string]interface{}{
				"requestId": result.RequestID,
				"codeId":    result.CodeID,
				"emailSent": result.EmailSent,
			},
		})
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (h *AdminHandler) ListCodes(w http.ResponseWriter, r *http.Request) {
	pagination := ParsePagination(r)

	codes, err := h.codeService.List(r.Context(), pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"codes":  formatCodes(codes),
		"limit":  pagination.Limit,
		"offset": pagination.Offset,
	})
}

func (h *AdminHandler) InviteDirect(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUser(r.Context())

	var req struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=200"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.invitationService.InviteDirect(r.Context(), req.Email, req.Name, admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventCodeIssued,
		UserID: admin.ID,
		Email:  result.Email,
		Details: map[string]interface{}{
			"codeId":    result.CodeID,
			"emailSent": result.EmailSent,
		},
	})

	writeJSON(w, http.StatusCreated, result)
}

func (h *AdminHandler) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=200"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.invitationService.ResendInvitation(r.Context(), chi.URLParam(r, "id"), req.Email, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// formatCodes masks code strings: the full value only ever goes out in the
// invitation email.
func formatCodes(codes []model.AccessCode) []map[string]any {
	out := make([]map[string]any, 0, len(codes))
	for _, c := range codes {
		out = append(out, map[string]any{
			"id":              c.ID,
			"code":            util.MaskCode(c.Code),
			"isUsed":          c.IsUsed,
			"usedByEmail":     c.UsedByEmail,
			"usedAt":          formatTime(c.UsedAt),
			"expiresAt":       c.ExpiresAt.Format(time.RFC3339),
			"generationType":  c.GenerationType,
			"generatedBy":     c.GeneratedBy,
			"accessRequestId": c.AccessRequestID,
			"emailSentAt":     formatTime(c.EmailSentAt),
			"createdAt":       c.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
