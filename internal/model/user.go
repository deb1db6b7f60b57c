package model

import (
	"time"
)

type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	AccessCodeID string     `db:"access_code_id" json:"accessCodeId"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash *string
	AccessCodeID string
}
