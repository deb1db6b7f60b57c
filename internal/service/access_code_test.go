package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foyerhq/foyer-server/internal/errors"
	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

func TestIssue_NewCode(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	// No collision on first attempt
	mockCodeRepo.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, nil).Once()

	issued := &model.AccessCode{
		ID:             "code-1",
		Code:           "ABCDEFGH2345",
		ExpiresAt:      time.Now().Add(24 * time.Hour),
		GenerationType: model.GenerationTypeAdminInvite,
		GeneratedBy:    "admin-1",
	}
	mockCodeRepo.On("Create", mock.Anything, mock.AnythingOfType("model.CreateAccessCodeParams")).
		Return(issued, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	code, err := service.Issue(context.Background(), IssueCodeParams{
		GeneratedBy:    "admin-1",
		GenerationType: model.GenerationTypeAdminInvite,
		TTL:            24 * time.Hour,
	})

	require.NoError(t, err)
	assert.Equal(t, "code-1", code.ID)
	mockCodeRepo.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("model.CreateAccessCodeParams"))
}

func TestIssue_RetriesOnCollision(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	taken := &model.AccessCode{ID: "other", Code: "TAKEN"}
	mockCodeRepo.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).
		Return(taken, nil).Twice()
	mockCodeRepo.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).
		Return(nil, nil).Once()

	issued := &model.AccessCode{ID: "code-2", ExpiresAt: time.Now().Add(time.Hour)}
	mockCodeRepo.On("Create", mock.Anything, mock.AnythingOfType("model.CreateAccessCodeParams")).
		Return(issued, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	code, err := service.Issue(context.Background(), IssueCodeParams{
		GeneratedBy:    "admin-1",
		GenerationType: model.GenerationTypeAdminInvite,
		TTL:            time.Hour,
	})

	require.NoError(t, err)
	assert.Equal(t, "code-2", code.ID)
	mockCodeRepo.AssertNumberOfCalls(t, "FindByCode", 3)
}

func TestIssue_GenerationExhausted(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	taken := &model.AccessCode{ID: "other", Code: "TAKEN"}
	mockCodeRepo.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).
		Return(taken, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	_, err := service.Issue(context.Background(), IssueCodeParams{
		GeneratedBy:    "admin-1",
		GenerationType: model.GenerationTypeAdminInvite,
		TTL:            time.Hour,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCodeGenerationExhausted, apperrors.GetCode(err))
	mockCodeRepo.AssertNumberOfCalls(t, "FindByCode", maxCodeGenerationAttempts)
	mockCodeRepo.AssertNotCalled(t, "Create")
}

func TestIssue_LostIssuanceRace(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	requestID := "req-1"
	// Precheck sees no code, but a concurrent issuance inserts one before
	// our INSERT; the partial unique index reports the loss.
	mockCodeRepo.On("FindByRequestID", mock.Anything, requestID).Return(nil, nil)
	mockCodeRepo.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil)
	mockCodeRepo.On("Create", mock.Anything, mock.AnythingOfType("model.CreateAccessCodeParams")).
		Return(nil, &pq.Error{Code: "23505", Constraint: repository.AccessCodeRequestConstraint})

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	_, err := service.Issue(context.Background(), IssueCodeParams{
		AccessRequestID: &requestID,
		GeneratedBy:     "admin-1",
		GenerationType:  model.GenerationTypeUserRequest,
		TTL:             time.Hour,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAlreadyIssued, apperrors.GetCode(err))
}

func TestIssue_CodeStringCollisionAtInsert(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	mockCodeRepo.On("FindByCode", mock.Anything, mock.AnythingOfType("string")).Return(nil, nil)
	mockCodeRepo.On("Create", mock.Anything, mock.AnythingOfType("model.CreateAccessCodeParams")).
		Return(nil, &pq.Error{Code: "23505", Constraint: "access_codes_code_key"})

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	_, err := service.Issue(context.Background(), IssueCodeParams{
		GeneratedBy:    "admin-1",
		GenerationType: model.GenerationTypeAdminInvite,
		TTL:            time.Hour,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.GetCode(err))
}

func TestIssue_AlreadyIssuedForRequest(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	requestID := "req-1"
	existing := &model.AccessCode{ID: "code-1", AccessRequestID: &requestID}
	mockCodeRepo.On("FindByRequestID", mock.Anything, requestID).
		Return(existing, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	_, err := service.Issue(context.Background(), IssueCodeParams{
		AccessRequestID: &requestID,
		GeneratedBy:     "admin-1",
		GenerationType:  model.GenerationTypeUserRequest,
		TTL:             time.Hour,
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAlreadyIssued, apperrors.GetCode(err))
	mockCodeRepo.AssertNotCalled(t, "Create")
}

func TestValidate_Redeemable(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	ac := &model.AccessCode{
		ID:        "code-1",
		Code:      "ABCDEFGH2345",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	mockCodeRepo.On("FindByCode", mock.Anything, "ABCDEFGH2345").
		Return(ac, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	// Case and whitespace are normalized before lookup
	result, err := service.Validate(context.Background(), "  abcdefgh2345 ")

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reason)
}

func TestValidate_Unknown(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	mockCodeRepo.On("FindByCode", mock.Anything, "NOSUCHCODE22").
		Return(nil, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	result, err := service.Validate(context.Background(), "NOSUCHCODE22")

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, apperrors.ErrCodeNotFound, result.Reason)
}

func TestValidate_Used(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	usedBy := "taken@example.com"
	ac := &model.AccessCode{
		ID:          "code-1",
		Code:        "ABCDEFGH2345",
		IsUsed:      true,
		UsedByEmail: &usedBy,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	mockCodeRepo.On("FindByCode", mock.Anything, "ABCDEFGH2345").
		Return(ac, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	result, err := service.Validate(context.Background(), "ABCDEFGH2345")

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, apperrors.ErrCodeAccessCodeUsed, result.Reason)
}

func TestValidate_Expired(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	ac := &model.AccessCode{
		ID:        "code-1",
		Code:      "ABCDEFGH2345",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	mockCodeRepo.On("FindByCode", mock.Anything, "ABCDEFGH2345").
		Return(ac, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	result, err := service.Validate(context.Background(), "ABCDEFGH2345")

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, apperrors.ErrCodeAccessCodeExpired, result.Reason)
}

func TestValidate_NeverMutates(t *testing.T) {
	mockCodeRepo := new(mockAccessCodeRepo)

	ac := &model.AccessCode{
		ID:        "code-1",
		Code:      "ABCDEFGH2345",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	mockCodeRepo.On("FindByCode", mock.Anything, "ABCDEFGH2345").
		Return(ac, nil)

	service := &AccessCodeService{codeRepo: mockCodeRepo}

	for i := 0; i < 5; i++ {
		_, err := service.Validate(context.Background(), "ABCDEFGH2345")
		require.NoError(t, err)
	}

	mockCodeRepo.AssertNotCalled(t, "MarkUsed")
}
