package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/foyerhq/foyer-server/internal/model"
)

// MagicLinkRepository handles single-use email sign-in tokens
type MagicLinkRepository interface {
	Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error)
	// Consume marks an unused, unexpired token as used and returns it. A nil
	// result means the token is unknown, expired, or already consumed; the
	// conditional update makes concurrent consumption attempts safe.
	Consume(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type magicLinkRepo struct {
	db *sqlx.DB
}

// NewMagicLinkRepository creates a new magic link token repository
func NewMagicLinkRepository(db *sqlx.DB) MagicLinkRepository {
	return &magicLinkRepo{db: db}
}

func (r *magicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error) {
	var token model.MagicLinkToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO magic_link_tokens (token_hash, email, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.TokenHash, params.Email, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *magicLinkRepo) Consume(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	var token model.MagicLinkToken
	err := r.db.GetContext(ctx, &token, `
		UPDATE magic_link_tokens
		SET used_at = NOW()
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING *
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *magicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM magic_link_tokens
		WHERE expires_at < NOW() OR used_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
