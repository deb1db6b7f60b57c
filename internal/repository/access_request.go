package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/foyerhq/foyer-server/internal/model"
)

// AccessRequestRepository handles access request data operations.
type AccessRequestRepository interface {
	Create(ctx context.Context, params model.CreateAccessRequestParams) (*model.AccessRequest, error)
	FindByID(ctx context.Context, id string) (*model.AccessRequest, error)
	FindPendingByEmail(ctx context.Context, email string) (*model.AccessRequest, error)
	FindLatestByEmail(ctx context.Context, email string) (*model.AccessRequest, error)
	FindAll(ctx context.Context, status *model.RequestStatus, limit, offset int) ([]model.AccessRequest, error)
	CountByStatus(ctx context.Context, status model.RequestStatus) (int, error)
	// Approve flips a pending request to approved. Returns the number of rows
	// updated: 0 means the request was not pending (or does not exist).
	Approve(ctx context.Context, id, reviewerID string) (int64, error)
	Reject(ctx context.Context, id, reviewerID string, reason *string) (int64, error)
	// BatchApprove approves every request in ids that is still pending and
	// returns how many were updated. Non-pending ids are skipped.
	BatchApprove(ctx context.Context, ids []string, reviewerID string) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccessRequestRepository
}

type accessRequestRepo struct {
	db sqlxDB
}

// sqlxDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sqlxDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// NewAccessRequestRepository creates a new access request repository
func NewAccessRequestRepository(db *sqlx.DB) AccessRequestRepository {
	return &accessRequestRepo{db: db}
}

func (r *accessRequestRepo) WithTx(tx *sqlx.Tx) AccessRequestRepository {
	return &accessRequestRepo{db: tx}
}

func (r *accessRequestRepo) Create(ctx context.Context, params model.CreateAccessRequestParams) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.GetContext(ctx, &req, `
		INSERT INTO access_requests (email, name, message)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.Email, params.Name, params.Message)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *accessRequestRepo) FindByID(ctx context.Context, id string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.GetContext(ctx, &req, `
		SELECT * FROM access_requests WHERE id = $1
	`, id)
	return HandleNotFound(&req, err)
}

func (r *accessRequestRepo) FindPendingByEmail(ctx context.Context, email string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.GetContext(ctx, &req, `
		SELECT * FROM access_requests
		WHERE email = $1 AND status = 'pending'
	`, email)
	return HandleNotFound(&req, err)
}

func (r *accessRequestRepo) FindLatestByEmail(ctx context.Context, email string) (*model.AccessRequest, error) {
	var req model.AccessRequest
	err := r.db.GetContext(ctx, &req, `
		SELECT * FROM access_requests
		WHERE email = $1
		ORDER BY requested_at DESC
		LIMIT 1
	`, email)
	return HandleNotFound(&req, err)
}

func (r *accessRequestRepo) FindAll(ctx context.Context, status *model.RequestStatus, limit, offset int) ([]model.AccessRequest, error) {
	var requests []model.AccessRequest
	var err error
	if status != nil {
		err = r.db.SelectContext(ctx, &requests, `
			SELECT * FROM access_requests
			WHERE status = $1
			ORDER BY requested_at DESC
			LIMIT $2 OFFSET $3
		`, *status, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &requests, `
			SELECT * FROM access_requests
			ORDER BY requested_at DESC
			LIMIT $1 OFFSET $2
		`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []model.AccessRequest{}
	}
	return requests, nil
}

func (r *accessRequestRepo) CountByStatus(ctx context.Context, status model.RequestStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM access_requests WHERE status = $1
	`, status)
	return count, err
}

func (r *accessRequestRepo) Approve(ctx context.Context, id, reviewerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_requests
		SET status = 'approved', reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *accessRequestRepo) Reject(ctx context.Context, id, reviewerID string, reason *string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_requests
		SET status = 'rejected', reviewed_at = NOW(), reviewed_by = $2, rejection_reason = $3
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID, reason)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *accessRequestRepo) BatchApprove(ctx context.Context, ids []string, reviewerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_requests
		SET status = 'approved', reviewed_at = NOW(), reviewed_by = $2
		WHERE id = ANY($1) AND status = 'pending'
	`, pq.Array(ids), reviewerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
