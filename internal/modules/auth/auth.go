package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on a wrong password or a bad token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service checks the shared admin password and issues session tokens. The
// store has a single admin role; there are no per-user accounts behind the
// counter.
type Service interface {
	Login(password string) (string, error)
	Verify(token string) error
}

type service struct {
	passwordHash []byte
	signingKey   []byte
	ttl          time.Duration
}

// NewServiceFromEnv reads ADMIN_PASSWORD_HASH (bcrypt) and JWT_SECRET.
func NewServiceFromEnv() (Service, error) {
	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	if hash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return NewService([]byte(hash), []byte(secret), 24*time.Hour), nil
}

// NewService creates an auth service with an explicit hash and key.
func NewService(passwordHash, signingKey []byte, ttl time.Duration) Service {
	return &service{passwordHash: passwordHash, signingKey: signingKey, ttl: ttl}
}

func (s *service) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

func (s *service) Verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidCredentials
	}
	return nil
}
