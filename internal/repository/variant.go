package repository

import (
	"context"
	"errors"

	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/MayderC/zayrel-be/internal/repository/postgres"
	"github.com/jackc/pgx/v5"
)

const (
	selectVariantQuery = `
						SELECT id, sku, name, price, stock FROM variants
						WHERE id = $1
`
	selectVariantsQuery = `
						SELECT id, sku, name, price, stock FROM variants
						WHERE id = ANY($1)
`
)

// VariantRepository reads catalog variants. Stock writes go through the
// order repository only.
type VariantRepository struct {
	db *postgres.DB
}

// NewVariantRepository creates new VariantRepository instance
func NewVariantRepository(db *postgres.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

// GetVariant returns variant by id
func (vr *VariantRepository) GetVariant(ctx context.Context, id uint64) (*models.Variant, error) {
	v := models.Variant{}
	err := vr.db.QueryRow(ctx, selectVariantQuery, id).Scan(&v.ID, &v.SKU, &v.Name, &v.Price, &v.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrVariantNotFound
		}
		return nil, err
	}

	return &v, nil
}

// GetVariants returns the requested variants keyed by id. A missing id is
// simply absent from the map.
func (vr *VariantRepository) GetVariants(ctx context.Context, ids []uint64) (map[uint64]models.Variant, error) {
	rows, err := vr.db.Query(ctx, selectVariantsQuery, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make(map[uint64]models.Variant, len(ids))

	for rows.Next() {
		v := models.Variant{}
		err = rows.Scan(&v.ID, &v.SKU, &v.Name, &v.Price, &v.Stock)
		if err != nil {
			continue
		}
		variants[v.ID] = v
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return variants, nil
}
