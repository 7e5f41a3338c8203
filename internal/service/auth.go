package service

import (
	"context"

	"github.com/MayderC/zayrel-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is interface for interacting with user-related data
type UserRepository interface {
	// GetUserByLogin returns user by login
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// TokenService mints session tokens
type TokenService interface {
	CreateToken(user *models.User) (string, error)
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// AuthService authenticates the admin review surface.
type AuthService struct {
	users UserRepository
	token TokenService
}

// NewAuthService creates new AuthService instance
func NewAuthService(users UserRepository, token TokenService) *AuthService {
	return &AuthService{users: users, token: token}
}

// Login verifies credentials and returns a session token
func (as *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := as.users.GetUserByLogin(ctx, login)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return as.token.CreateToken(user)
}
