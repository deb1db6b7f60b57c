package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/foyerhq/foyer-server/internal/model"
	"github.com/foyerhq/foyer-server/internal/repository"
)

// Mock repositories shared by the service tests.

type mockAccessRequestRepo struct {
	mock.Mock
}

func (m *mockAccessRequestRepo) Create(ctx context.Context, params model.CreateAccessRequestParams) (*model.AccessRequest, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) FindByID(ctx context.Context, id string) (*model.AccessRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) FindPendingByEmail(ctx context.Context, email string) (*model.AccessRequest, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) FindLatestByEmail(ctx context.Context, email string) (*model.AccessRequest, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) FindAll(ctx context.Context, status *model.RequestStatus, limit, offset int) ([]model.AccessRequest, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessRequest), args.Error(1)
}

func (m *mockAccessRequestRepo) CountByStatus(ctx context.Context, status model.RequestStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

func (m *mockAccessRequestRepo) Approve(ctx context.Context, id, reviewerID string) (int64, error) {
	args := m.Called(ctx, id, reviewerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessRequestRepo) Reject(ctx context.Context, id, reviewerID string, reason *string) (int64, error) {
	args := m.Called(ctx, id, reviewerID, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessRequestRepo) BatchApprove(ctx context.Context, ids []string, reviewerID string) (int64, error) {
	args := m.Called(ctx, ids, reviewerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessRequestRepo) WithTx(tx *sqlx.Tx) repository.AccessRequestRepository {
	return m
}

type mockAccessCodeRepo struct {
	mock.Mock
}

func (m *mockAccessCodeRepo) Create(ctx context.Context, params model.CreateAccessCodeParams) (*model.AccessCode, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) FindByID(ctx context.Context, id string) (*model.AccessCode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) FindByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) FindByRequestID(ctx context.Context, requestID string) (*model.AccessCode, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) FindAll(ctx context.Context, limit, offset int) ([]model.AccessCode, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AccessCode), args.Error(1)
}

func (m *mockAccessCodeRepo) MarkUsed(ctx context.Context, code, email string, usedAt time.Time) (int64, error) {
	args := m.Called(ctx, code, email, usedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAccessCodeRepo) MarkEmailSent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAccessCodeRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccessCodeRepo) CountUsed(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockAccessCodeRepo) WithTx(tx *sqlx.Tx) repository.AccessCodeRepository {
	return m
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository {
	return m
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockMagicLinkRepo struct {
	mock.Mock
}

func (m *mockMagicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MagicLinkToken), args.Error(1)
}

func (m *mockMagicLinkRepo) Consume(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MagicLinkToken), args.Error(1)
}

func (m *mockMagicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendInvitation(ctx context.Context, email, name, code string, expiresAt time.Time) error {
	args := m.Called(ctx, email, name, code, expiresAt)
	return args.Error(0)
}

func (m *mockMailer) SendMagicLink(ctx context.Context, email, link string) error {
	args := m.Called(ctx, email, link)
	return args.Error(0)
}
