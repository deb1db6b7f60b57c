package model

import (
	"time"
)

// AccessRequest represents a prospective user's claim to be granted an
// access code. Requests are never hard-deleted; they form the audit trail
// of the onboarding flow.
type AccessRequest struct {
	ID              string        `db:"id" json:"id"`
	Email           string        `db:"email" json:"email"`
	Name            string        `db:"name" json:"name"`
	Message         *string       `db:"message" json:"message,omitempty"`
	Status          RequestStatus `db:"status" json:"status"`
	RequestedAt     time.Time     `db:"requested_at" json:"requestedAt"`
	ReviewedAt      *time.Time    `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy      *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
	RejectionReason *string       `db:"rejection_reason" json:"rejectionReason,omitempty"`
}

type CreateAccessRequestParams struct {
	Email   string
	Name    string
	Message *string
}

// IsPending reports whether the request is still awaiting review.
func (r *AccessRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
