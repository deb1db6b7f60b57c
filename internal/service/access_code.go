package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

// maxCodeGenerationAttempts bounds the generate-and-check retry loop so a
// degraded database cannot spin it forever.
const maxCodeGenerationAttempts = 10

// CodeValidation is the result of a read-only access code check.
type CodeValidation struct {
	Valid  bool                `json:"valid"`
	Reason apperrors.ErrorCode `json:"reason,omitempty"`
}

// IssueCodeParams describes a code issuance. AccessRequestID is nil for
// direct admin invitations.
type IssueCodeParams struct {
	AccessRequestID *string
	GeneratedBy     string
	GenerationType  model.GenerationType
	TTL             time.Duration
}

// AccessCodeService owns the access code lifecycle: issuance with enforced
// uniqueness, and side-effect-free validation.
type AccessCodeService struct {
	codeRepo repository.AccessCodeRepository
}

// NewAccessCodeService creates a new access code service
func NewAccessCodeService(codeRepo repository.AccessCodeRepository) *AccessCodeService {
	return &AccessCodeService{codeRepo: codeRepo}
}

// Issue generates a unique code and persists it. Generation and the
// uniqueness check are not atomic with the insert, so the insert's UNIQUE
// constraint remains the backstop for the race window; a violation there is
// surfaced as a conflict, never silently retried.
func (s *AccessCodeService) Issue(ctx context.Context, params IssueCodeParams) (*model.AccessCode, error) {
	if params.AccessRequestID != nil {
		existing, err := s.codeRepo.FindByRequestID(ctx, *params.AccessRequestID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if existing != nil {
			return nil, apperrors.AlreadyIssued()
		}
	}

	code, err := s.uniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	ac, err := s.codeRepo.Create(ctx, model.CreateAccessCodeParams{
		Code:            code,
		ExpiresAt:       time.Now().Add(params.TTL),
		GenerationType:  params.GenerationType,
		GeneratedBy:     params.GeneratedBy,
		AccessRequestID: params.AccessRequestID,
	})
	if err != nil {
		if repository.UniqueViolationConstraint(err) == repository.AccessCodeRequestConstraint {
			// Lost a race on the 0..1 request-to-code constraint: a
			// concurrent issuance for the same request got there first.
			return nil, apperrors.AlreadyIssued()
		}
		if repository.IsUniqueViolation(err) {
			// Lost a race on the code string itself.
			return nil, apperrors.Wrap(apperrors.ErrCodeConflict, "Access code conflict", err)
		}
		return nil, apperrors.Database(fmt.Errorf("create access code: %w", err))
	}

	log.Info().
		Str("codeId", ac.ID).
		Str("generationType", string(ac.GenerationType)).
		Str("generatedBy", ac.GeneratedBy).
		Time("expiresAt", ac.ExpiresAt).
		Msg("access code issued")

	return ac, nil
}

// uniqueCode generates candidates until one is unused, bounded by
// maxCodeGenerationAttempts.
func (s *AccessCodeService) uniqueCode(ctx context.Context) (string, error) {
	for attempts := 0; attempts < maxCodeGenerationAttempts; attempts++ {
		code := GenerateAccessCode()
		existing, err := s.codeRepo.FindByCode(ctx, code)
		if err != nil {
			return "", apperrors.Database(err)
		}
		if existing == nil {
			return code, nil
		}
	}

	log.Error().Int("attempts", maxCodeGenerationAttempts).Msg("access code generation exhausted")
	return "", apperrors.CodeGenerationExhausted()
}

// Validate checks whether a code is redeemable. It never mutates state, so
// it is safe to call repeatedly (live validation fields hit it on every
// keystroke); callers still rate-limit it as an abuse gate.
func (s *AccessCodeService) Validate(ctx context.Context, codeStr string) (*CodeValidation, error) {
	ac, err := s.codeRepo.FindByCode(ctx, NormalizeCode(codeStr))
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if ac == nil {
		return &CodeValidation{Valid: false, Reason: apperrors.ErrCodeNotFound}, nil
	}
	if ac.IsUsed {
		return &CodeValidation{Valid: false, Reason: apperrors.ErrCodeAccessCodeUsed}, nil
	}
	if ac.IsExpired() {
		return &CodeValidation{Valid: false, Reason: apperrors.ErrCodeAccessCodeExpired}, nil
	}

	return &CodeValidation{Valid: true}, nil
}

// List returns codes newest first.
func (s *AccessCodeService) List(ctx context.Context, limit, offset int) ([]model.AccessCode, error) {
	codes, err := s.codeRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return codes, nil
}

// NormalizeCode uppercases and trims a user-supplied code string.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
