package usecase

import (
	"errors"
	"fmt"
	"time"

	"mindbody-backend/internal/fitness/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// stateClaims is the payload of the OAuth state parameter. It binds the callback to
// the user and provider that started the flow.
type stateClaims struct {
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

type stateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (s stateSigner) issue(user, provider string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := stateClaims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// parse verifies the state and returns the user it was issued to.
func (s stateSigner) parse(state, provider string) (string, error) {
	if state == "" {
		return "", domain.ErrInvalidState
	}
	claims := &stateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidState, err)
	}
	if claims.Provider != provider {
		return "", fmt.Errorf("%w: issued for %q", domain.ErrInvalidState, claims.Provider)
	}
	if claims.Subject == "" {
		return "", errors.Join(domain.ErrInvalidState, errors.New("state has no subject"))
	}
	return claims.Subject, nil
}
