package repository

import (
	"context"
	"errors"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/repository/postgres"
	"github.com/jackc/pgx/v5"
)

const (
	selectUserByLoginQuery = `
						SELECT id, login, password_hash, is_admin, tokens, created_at FROM users
						WHERE login = $1
`
	upsertAdminQuery = `
						INSERT INTO users (login, password_hash, is_admin)
						VALUES ($1, $2, TRUE)
						ON CONFLICT (login) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_admin = TRUE
`
)

// UserRepository reads registered accounts
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new UserRepository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetUserByLogin returns user by login
func (ur *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	user := models.User{}
	err := ur.db.QueryRow(ctx, selectUserByLoginQuery, login).Scan(
		&user.ID, &user.Login, &user.PasswordHash, &user.IsAdmin, &user.Tokens, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	return &user, nil
}

// EnsureAdmin creates or refreshes the admin account used by the review surface
func (ur *UserRepository) EnsureAdmin(ctx context.Context, login, passwordHash string) error {
	_, err := ur.db.Exec(ctx, upsertAdminQuery, login, passwordHash)
	return err
}
