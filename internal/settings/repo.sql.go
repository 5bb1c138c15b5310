package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for tax settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTaxSettings loads the scheme configuration for an owner.
func (r *Repository) GetTaxSettings(ctx context.Context, ownerID int64) (SchemeConfig, error) {
	var cfg SchemeConfig
	err := r.pool.QueryRow(ctx, `SELECT owner_id, scheme, flat_rate_percentage, limited_cost_override_percentage, jurisdiction, updated_at
FROM tax_settings WHERE owner_id = $1`, ownerID).Scan(
		&cfg.OwnerID, &cfg.Scheme, &cfg.FlatRatePercentage, &cfg.LimitedCostOverridePercentage, &cfg.Jurisdiction, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SchemeConfig{}, ErrNotFound
		}
		return SchemeConfig{}, err
	}
	return cfg, nil
}

// UpsertTaxSettings stores the scheme configuration for an owner.
func (r *Repository) UpsertTaxSettings(ctx context.Context, cfg SchemeConfig) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO tax_settings (owner_id, scheme, flat_rate_percentage, limited_cost_override_percentage, jurisdiction, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (owner_id) DO UPDATE SET scheme = EXCLUDED.scheme,
flat_rate_percentage = EXCLUDED.flat_rate_percentage,
limited_cost_override_percentage = EXCLUDED.limited_cost_override_percentage,
jurisdiction = EXCLUDED.jurisdiction, updated_at = now()`,
		cfg.OwnerID, cfg.Scheme, cfg.FlatRatePercentage, cfg.LimitedCostOverridePercentage, cfg.Jurisdiction)
	return err
}
