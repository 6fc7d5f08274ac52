package repository

import (
	"context"

	authdomain "mindbody-backend/internal/auth/domain"

	"golang.org/x/crypto/bcrypt"
)

// UserRepository stores application accounts. Lookups of unknown users return
// (nil, nil).
type UserRepository interface {
	Create(ctx context.Context, user *authdomain.User) error
	FindByUsername(ctx context.Context, username string) (*authdomain.User, error)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
