package repository

import (
	"context"
	"errors"
	"time"

	authdomain "mindbody-backend/internal/auth/domain"

	"gorm.io/gorm"
)

// userRepository implements UserRepository on Postgres
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *authdomain.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return authdomain.ErrUsernameTaken
	}
	return err
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*authdomain.User, error) {
	var user authdomain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
