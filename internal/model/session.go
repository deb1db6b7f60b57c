package model

import (
	"time"
)

type Session struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	UserID    string    `db:"user_id" json:"userId"`
	Role      Role      `db:"role" json:"role"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateSessionParams struct {
	TokenHash string
	UserID    string
	Role      Role
	ExpiresAt time.Time
}

// MagicLinkToken is a single-use email sign-in token. Only the hash is
// stored; the raw token goes out in the email link.
type MagicLinkToken struct {
	ID        string     `db:"id" json:"id"`
	TokenHash string     `db:"token_hash" json:"-"`
	Email     string     `db:"email" json:"email"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type CreateMagicLinkTokenParams struct {
	TokenHash string
	Email     string
	ExpiresAt time.Time
}
