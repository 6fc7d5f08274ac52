package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	authdomain "mindbody-backend/internal/auth/domain"
	authdto "mindbody-backend/internal/auth/dto"
	"mindbody-backend/internal/auth/repository"
	"mindbody-backend/pkg/config"
	"mindbody-backend/pkg/recordstore"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidUsername = errors.New("username may only contain letters, digits and . _ @ + -")

// authUsecase implements AuthUsecase interface
type authUsecase struct {
	userRepo repository.UserRepository
	config   *config.Config
	now      func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		config:   cfg,
		now:      time.Now,
	}
}

func (u *authUsecase) Register(ctx context.Context, req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if !recordstore.ValidName(username) {
		return nil, ErrInvalidUsername
	}

	existing, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, authdomain.ErrUsernameTaken
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &authdomain.User{
		Username: username,
		Password: hashedPassword,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("[Auth] Registered %s", username)

	return u.generateToken(user)
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	user, err := u.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if user == nil || !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, authdomain.ErrInvalidCredentials
	}
	return u.generateToken(user)
}

func (u *authUsecase) generateToken(user *authdomain.User) (*authdto.TokenResponse, error) {
	now := u.now()
	exp := now.Add(u.config.JWTAccessExpiry)
	claims := jwt.MapClaims{
		"user_id":  user.Username,
		"token_id": uuid.New().String(),
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(u.config.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &authdto.TokenResponse{
		AccessToken: signed,
		ExpiresAt:   exp.Unix(),
		User:        user,
	}, nil
}

func (u *authUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(u.config.JWTSecret), nil
	}, jwt.WithTimeFunc(u.now))

	if err != nil || !token.Valid {
		return nil, authdomain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}

	user, err := u.userRepo.FindByUsername(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}
