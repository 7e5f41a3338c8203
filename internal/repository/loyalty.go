package repository

import (
	"context"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/repository/postgres"
	"github.com/google/uuid"
)

const pgErrUniqueViolationCode = "23505"

const (
	insertGrantQuery = `
						INSERT INTO loyalty_grants (order_id, user_id, amount)
						VALUES ($1, $2, $3)
`
	addTokensQuery = `
						UPDATE users
						SET tokens = tokens + $2
						WHERE id = $1
`
	selectTokensQuery = `
						SELECT tokens FROM users
						WHERE id = $1
`
)

// LoyaltyRepository grants loyalty tokens on order completion.
type LoyaltyRepository struct {
	db *postgres.DB
}

// NewLoyaltyRepository creates new LoyaltyRepository instance
func NewLoyaltyRepository(db *postgres.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

// GrantForOrder credits amount tokens to the user for the given order. The
// grant row's primary key is the order id, so a second grant for the same
// order fails with models.ErrConflictData and the balance is left untouched.
func (lr *LoyaltyRepository) GrantForOrder(ctx context.Context, orderID uuid.UUID, userID uint64, amount int64) error {
	tx, err := lr.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertGrantQuery, orderID, userID, amount); err != nil {
		if errCode := lr.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return models.ErrConflictData
		}
		return err
	}

	if _, err := tx.Exec(ctx, addTokensQuery, userID, amount); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Balance returns the user's current token balance
func (lr *LoyaltyRepository) Balance(ctx context.Context, userID uint64) (int64, error) {
	var tokens int64
	if err := lr.db.QueryRow(ctx, selectTokensQuery, userID).Scan(&tokens); err != nil {
		return 0, err
	}
	return tokens, nil
}
