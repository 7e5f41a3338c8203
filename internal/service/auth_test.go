package service

import (
	"context"
	"testing"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	user *models.User
	err  error
}

func (r *fakeUserRepo) GetUserByLogin(context.Context, string) (*models.User, error) {
	return r.user, r.err
}

type fakeTokenService struct{}

func (fakeTokenService) CreateToken(user *models.User) (string, error) {
	return "token-for-" + user.Login, nil
}

func (fakeTokenService) VerifyToken(string) (*models.TokenPayload, error) {
	return nil, nil
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &models.User{ID: 1, Login: "admin", PasswordHash: string(hash), IsAdmin: true}

	t.Run("valid_credentials", func(t *testing.T) {
		svc := NewAuthService(&fakeUserRepo{user: admin}, fakeTokenService{})

		token, err := svc.Login(context.Background(), "admin", "secret")
		require.NoError(t, err)
		assert.Equal(t, "token-for-admin", token)
	})

	t.Run("wrong_password", func(t *testing.T) {
		svc := NewAuthService(&fakeUserRepo{user: admin}, fakeTokenService{})

		_, err := svc.Login(context.Background(), "admin", "wrong")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("unknown_login", func(t *testing.T) {
		svc := NewAuthService(&fakeUserRepo{err: models.ErrInvalidCredentials}, fakeTokenService{})

		_, err := svc.Login(context.Background(), "ghost", "secret")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}
