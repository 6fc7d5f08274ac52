package usecase

import (
	"context"

	authdomain "mindbody-backend/internal/auth/domain"
	authdto "mindbody-backend/internal/auth/dto"
)

// AuthUsecase registers accounts and issues access tokens.
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (*authdomain.User, error)
}
