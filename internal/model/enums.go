package model

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known status value.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

type GenerationType string

const (
	GenerationTypeAdminInvite GenerationType = "admin_invite"
	GenerationTypeUserRequest GenerationType = "user_request"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)
