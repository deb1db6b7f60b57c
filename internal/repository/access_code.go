package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/foyerhq/foyer-server/internal/model"
)

// AccessCodeRequestConstraint is the partial unique index enforcing the
// 0..1 request-to-code relation.
const AccessCodeRequestConstraint = "access_codes_request_idx"

// AccessCodeRepository handles access code data operations. Codes are never
// deleted; the table is the audit trail of every code ever issued.
type AccessCodeRepository interface {
	Create(ctx context.Context, params model.CreateAccessCodeParams) (*model.AccessCode, error)
	FindByID(ctx context.Context, id string) (*model.AccessCode, error)
	FindByCode(ctx context.Context, code string) (*model.AccessCode, error)
	FindByRequestID(ctx context.Context, requestID string) (*model.AccessCode, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.AccessCode, error)
	// MarkUsed consumes a code with a conditional update. Returns the number
	// of rows updated: 1 when this caller won the redemption, 0 when the code
	// was already used or has expired. The WHERE clause is the serialization
	// point for concurrent redemption attempts.
	MarkUsed(ctx context.Context, code, email string, usedAt time.Time) (int64, error)
	MarkEmailSent(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountUsed(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccessCodeRepository
}

type accessCodeRepo struct {
	db sqlxDB
}

// NewAccessCodeRepository creates a new access code repository
func NewAccessCodeRepository(db *sqlx.DB) AccessCodeRepository {
	return &accessCodeRepo{db: db}
}

func (r *accessCodeRepo) WithTx(tx *sqlx.Tx) AccessCodeRepository {
	return &accessCodeRepo{db: tx}
}

func (r *accessCodeRepo) Create(ctx context.Context, params model.CreateAccessCodeParams) (*model.AccessCode, error) {
	var code model.AccessCode
	err := r.db.GetContext(ctx, &code, `
		INSERT INTO access_codes (code, expires_at, generation_type, generated_by, access_request_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Code, params.ExpiresAt, params.GenerationType, params.GeneratedBy, params.AccessRequestID)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *accessCodeRepo) FindByID(ctx context.Context, id string) (*model.AccessCode, error) {
	var code model.AccessCode
	err := r.db.GetContext(ctx, &code, `
		SELECT * FROM access_codes WHERE id = $1
	`, id)
	return HandleNotFound(&code, err)
}

func (r *accessCodeRepo) FindByCode(ctx context.Context, codeStr string) (*model.AccessCode, error) {
	var code model.AccessCode
	err := r.db.GetContext(ctx, &code, `
		SELECT * FROM access_codes WHERE code = $1
	`, codeStr)
	return HandleNotFound(&code, err)
}

func (r *accessCodeRepo) FindByRequestID(ctx context.Context, requestID string) (*model.AccessCode, error) {
	var code model.AccessCode
	err := r.db.GetContext(ctx, &code, `
		SELECT * FROM access_codes WHERE access_request_id = $1
	`, requestID)
	return HandleNotFound(&code, err)
}

func (r *accessCodeRepo) FindAll(ctx context.Context, limit, offset int) ([]model.AccessCode, error) {
	var codes []model.AccessCode
	err := r.db.SelectContext(ctx, &codes, `
		SELECT * FROM access_codes
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []model.AccessCode{}
	}
	return codes, nil
}

func (r *accessCodeRepo) MarkUsed(ctx context.Context, code, email string, usedAt time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE access_codes
		SET is_used = TRUE, used_by_email = $2, used_at = $3
		WHERE code = $1 AND is_used = FALSE AND expires_at > NOW()
	`, code, email, usedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *accessCodeRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM access_codes`)
	return count, err
}

func (r *accessCodeRepo) CountUsed(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM access_codes WHERE is_used = TRUE`)
	return count, err
}

func (r *accessCodeRepo) MarkEmailSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE access_codes
		SET email_sent_at = NOW()
		WHERE id = $1
	`, id)
	return err
}
