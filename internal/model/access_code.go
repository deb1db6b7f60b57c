package model

import (
	"time"
)

// AccessCode represents a single-use, time-limited code that authorizes
// account creation. Codes are never deleted, and code strings are never
// reused, so audit logs stay unambiguous.
type AccessCode struct {
	ID              string         `db:"id" json:"id"`
	Code            string         `db:"code" json:"code"`
	IsUsed          bool           `db:"is_used" json:"isUsed"`
	UsedByEmail     *string        `db:"used_by_email" json:"usedByEmail,omitempty"`
	UsedAt          *time.Time     `db:"used_at" json:"usedAt,omitempty"`
	ExpiresAt       time.Time      `db:"expires_at" json:"expiresAt"`
	GenerationType  GenerationType `db:"generation_type" json:"generationType"`
	GeneratedBy     string         `db:"generated_by" json:"generatedBy"`
	AccessRequestID *string        `db:"access_request_id" json:"accessRequestId,omitempty"`
	EmailSentAt     *time.Time     `db:"email_sent_at" json:"emailSentAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

type CreateAccessCodeParams struct {
	Code            string
	ExpiresAt       time.Time
	GenerationType  GenerationType
	GeneratedBy     string
	AccessRequestID *string
}

// IsExpired checks if the code has expired.
func (c *AccessCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsRedeemable checks if the code can still be redeemed (unused and unexpired).
func (c *AccessCode) IsRedeemable() bool {
	return !c.IsUsed && !c.IsExpired()
}
