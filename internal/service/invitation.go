package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

// InvitationResult is the per-item outcome of a batch invitation.
type InvitationResult struct {
	RequestID string    `json:"requestId"`
	CodeID    string    `json:"codeId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	EmailSent bool      `json:"emailSent"`
}

// InvitationError records why one item of a batch failed. A failure never
// aborts the batch or rolls back sibling items.
type InvitationError struct {
	RequestID string              `json:"requestId"`
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
}

// BatchInvitationOutcome aggregates per-item results and errors.
type BatchInvitationOutcome struct {
	Results []InvitationResult `json:"results"`
	Errors  []InvitationError  `json:"errors"`
}

// InvitationService orchestrates the admin invitation workflow: issuing
// codes for approved requests (or directly, without a backing request) and
// dispatching invitation email.
type InvitationService struct {
	requestRepo repository.AccessRequestRepository
	codeRepo    repository.AccessCodeRepository
	codeService *AccessCodeService
	mailer      Mailer
	inviteTTL   time.Duration
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	requestRepo repository.AccessRequestRepository,
	codeRepo repository.AccessCodeRepository,
	codeService *AccessCodeService,
	mailer Mailer,
	inviteTTL time.Duration,
) *InvitationService {
	return &InvitationService{
		requestRepo: requestRepo,
		codeRepo:    codeRepo,
		codeService: codeService,
		mailer:      mailer,
		inviteTTL:   inviteTTL,
	}
}

// BatchSendInvitations processes each approved request independently: issue
// a code, then attempt email dispatch. An email failure leaves the code
// issued and is reported per item; an admin re-send recovers that state.
func (s *InvitationService) BatchSendInvitations(ctx context.Context, requestIDs []string, actorID string) *BatchInvitationOutcome {
	outcome := &BatchInvitationOutcome{
		Results: []InvitationResult{},
		Errors:  []InvitationError{},
	}

	for _, requestID := range requestIDs {
		result, err := s.sendInvitation(ctx, requestID, actorID)
		if err != nil {
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				appErr = apperrors.Internal("Invitation failed")
			}
			outcome.Errors = append(outcome.Errors, InvitationError{
				RequestID: requestID,
				Code:      appErr.Code,
				Message:   appErr.Message,
			})
			continue
		}
		outcome.Results = append(outcome.Results, *result)
	}

	log.Info().
		Int("requested", len(requestIDs)).
		Int("sent", len(outcome.Results)).
		Int("failed", len(outcome.Errors)).
		Str("actorId", actorID).
		Msg("batch invitations processed")

	return outcome
}

func (s *InvitationService) sendInvitation(ctx context.Context, requestID, actorID string) (*InvitationResult, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil {
		return nil, apperrors.NotFound("Access request")
	}
	if req.Status != model.RequestStatusApproved {
		return nil, apperrors.New(apperrors.ErrCodeConflict, "Access request is not approved")
	}

	code, err := s.codeService.Issue(ctx, IssueCodeParams{
		AccessRequestID: &req.ID,
		GeneratedBy:     actorID,
		GenerationType:  model.GenerationTypeUserRequest,
		TTL:             s.inviteTTL,
	})
	if err != nil {
		return nil, err
	}

	result := &InvitationResult{
		RequestID: req.ID,
		CodeID:    code.ID,
		Email:     req.Email,
		ExpiresAt: code.ExpiresAt,
	}

	result.EmailSent = s.dispatchEmail(ctx, code, req.Email, req.Name)
	return result, nil
}

// InviteDirect issues a code without a backing access request and emails it.
func (s *InvitationService) InviteDirect(ctx context.Context, email, name, actorID string) (*InvitationResult, error) {
	email = NormalizeEmail(email)

	code, err := s.codeService.Issue(ctx, IssueCodeParams{
		GeneratedBy:    actorID,
		GenerationType: model.GenerationTypeAdminInvite,
		TTL:            s.inviteTTL,
	})
	if err != nil {
		return nil, err
	}

	result := &InvitationResult{
		CodeID:    code.ID,
		Email:     email,
		ExpiresAt: code.ExpiresAt,
	}
	result.EmailSent = s.dispatchEmail(ctx, code, email, name)

	return result, nil
}

// ResendInvitation re-dispatches the invitation email for an issued code.
// Codes left in the issued-but-unsent state require this explicit admin
// action; there is no background retry.
func (s *InvitationService) ResendInvitation(ctx context.Context, codeID, email, name string) (*InvitationResult, error) {
	code, err := s.codeRepo.FindByID(ctx, codeID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if code == nil {
		return nil, apperrors.NotFound("Access code")
	}
	if code.IsUsed {
		return nil, apperrors.AccessCodeUsed()
	}
	if code.IsExpired() {
		return nil, apperrors.AccessCodeExpired()
	}

	result := &InvitationResult{
		CodeID:    code.ID,
		Email:     email,
		ExpiresAt: code.ExpiresAt,
	}
	if code.AccessRequestID != nil {
		result.RequestID = *code.AccessRequestID
	}
	result.EmailSent = s.dispatchEmail(ctx, code, email, name)

	return result, nil
}

func (s *InvitationService) dispatchEmail(ctx context.Context, code *model.AccessCode, email, name string) bool {
	if err := s.mailer.SendInvitation(ctx, email, name, code.Code, code.ExpiresAt); err != nil {
		log.Error().Err(err).
			Str("codeId", code.ID).
			Str("email", email).
			Msg("invitation email dispatch failed, code remains issued")
		return false
	}

	if err := s.codeRepo.MarkEmailSent(ctx, code.ID); err != nil {
		log.Error().Err(err).Str("codeId", code.ID).Msg("mark email sent")
	}
	return true
}
