package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

// AccessRequestService owns the access request lifecycle. Status moves
// pending -> approved or pending -> rejected, exactly once; reviewed
// requests are immutable and requests are never hard-deleted.
type AccessRequestService struct {
	requestRepo repository.AccessRequestRepository
	userRepo    repository.UserRepository
}

// NewAccessRequestService creates a new access request service
func NewAccessRequestService(
	requestRepo repository.AccessRequestRepository,
	userRepo repository.UserRepository,
) *AccessRequestService {
	return &AccessRequestService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
	}
}

// Submit creates a pending request. At most one pending request may exist
// per normalized email; the partial unique index backs up this check.
func (s *AccessRequestService) Submit(ctx context.Context, email, name string, message *string) (*model.AccessRequest, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user != nil {
		return nil, apperrors.AccountAlreadyExists()
	}

	pending, err := s.requestRepo.FindPendingByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if pending != nil {
		return nil, apperrors.DuplicatePendingRequest()
	}

	req, err := s.requestRepo.Create(ctx, model.CreateAccessRequestParams{
		Email:   email,
		Name:    name,
		Message: message,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.DuplicatePendingRequest()
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("requestId", req.ID).
		Str("email", email).
		Msg("access request submitted")

	return req, nil
}

// Get returns a request by id.
func (s *AccessRequestService) Get(ctx context.Context, requestID string) (*model.AccessRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil {
		return nil, apperrors.NotFound("Access request")
	}
	return req, nil
}

// Status returns the most recent request for an email.
func (s *AccessRequestService) Status(ctx context.Context, email string) (*model.AccessRequest, error) {
	req, err := s.requestRepo.FindLatestByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil {
		return nil, apperrors.NotFound("Access request")
	}
	return req, nil
}

// Approve flips a pending request to approved. The conditional update in the
// repository is the serialization point: a request reviewed concurrently by
// two admins yields AlreadyReviewed for the loser.
func (s *AccessRequestService) Approve(ctx context.Context, requestID, reviewerID string) (*model.AccessRequest, error) {
	return s.review(ctx, requestID, reviewerID, func(ctx context.Context) (int64, error) {
		return s.requestRepo.Approve(ctx, requestID, reviewerID)
	})
}

// Reject flips a pending request to rejected with an optional reason.
func (s *AccessRequestService) Reject(ctx context.Context, requestID, reviewerID string, reason *string) (*model.AccessRequest, error) {
	return s.review(ctx, requestID, reviewerID, func(ctx context.Context) (int64, error) {
		return s.requestRepo.Reject(ctx, requestID, reviewerID, reason)
	})
}

func (s *AccessRequestService) review(ctx context.Context, requestID, reviewerID string, update func(context.Context) (int64, error)) (*model.AccessRequest, error) {
	req, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if req == nil {
		return nil, apperrors.NotFound("Access request")
	}
	if !req.IsPending() {
		return nil, apperrors.AlreadyReviewed()
	}

	affected, err := update(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if affected == 0 {
		// Reviewed between the read and the update.
		return nil, apperrors.AlreadyReviewed()
	}

	updated, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("requestId", requestID).
		Str("reviewedBy", reviewerID).
		Str("status", string(updated.Status)).
		Msg("access request reviewed")

	return updated, nil
}

// BatchApprove approves every pending request among the given ids and
// returns the count. Non-pending requests are skipped, not errors; this is
// a bulk convenience operation and partial application is expected.
func (s *AccessRequestService) BatchApprove(ctx context.Context, requestIDs []string, reviewerID string) (int64, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}

	count, err := s.requestRepo.BatchApprove(ctx, requestIDs, reviewerID)
	if err != nil {
		return 0, apperrors.Database(err)
	}

	log.Info().
		Int("requested", len(requestIDs)).
		Int64("approved", count).
		Str("reviewedBy", reviewerID).
		Msg("access requests batch approved")

	return count, nil
}

// List returns requests filtered by optional status.
func (s *AccessRequestService) List(ctx context.Context, status *model.RequestStatus, limit, offset int) ([]model.AccessRequest, error) {
	requests, err := s.requestRepo.FindAll(ctx, status, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return requests, nil
}

// NormalizeEmail lowercases and trims an email address so the one-pending-
// request-per-email rule cannot be dodged with case variants.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
