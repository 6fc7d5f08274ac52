package domain

import (
	"errors"
	"time"
)

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is an application account. Username doubles as the key of the user's data
// directory.
type User struct {
	Username  string    `json:"username" gorm:"primaryKey;size:64"`
	Password  string    `json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
