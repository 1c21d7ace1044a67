package models

import (
	"time"

	"github.com/google/uuid"
)

// User types
const (
	UserTypeUser  = "user"
	UserTypeAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Phone        *string   `json:"phone" db:"phone"`
	PasswordHash string    `json:"-" db:"password_hash"`
	UserType     string    `json:"user_type" db:"user_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}
