package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VeritasForge/snowball/internal/models"
)

var ErrAssetNotFound = errors.New("asset not found")

// AssetRepository handles database operations for assets
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// Create inserts a new asset and fills in the generated id. The owning
// account must belong to the user.
func (r *AssetRepository) Create(ctx context.Context, userID int64, a *models.Asset) error {
	query := `
		INSERT INTO assets (account_id, name, code, category,
			target_weight, current_price, avg_price, quantity)
		SELECT $1, $3, $4, $5, $6, $7, $8, $9
		WHERE EXISTS (SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, a.AccountID, userID, a.Name, a.Code, a.Category,
		a.TargetWeight, a.CurrentPrice, a.AvgPrice, a.Quantity).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// Get retrieves an asset, verifying through the account join that it
// belongs to the user.
func (r *AssetRepository) Get(ctx context.Context, userID, assetID int64) (*models.Asset, error) {
	query := `
		SELECT a.id, a.account_id, a.name, a.code, a.category,
		       a.target_weight, a.current_price, a.avg_price, a.quantity
		FROM assets a
		JOIN accounts acc ON acc.id = a.account_id
		WHERE a.id = $1 AND acc.user_id = $2
	`
	a := &models.Asset{}
	err := r.pool.QueryRow(ctx, query, assetID, userID).Scan(
		&a.ID, &a.AccountID, &a.Name, &a.Code, &a.Category,
		&a.TargetWeight, &a.CurrentPrice, &a.AvgPrice, &a.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// Update patches an asset's raw fields. Nil patch fields are left
// untouched.
func (r *AssetRepository) Update(ctx context.Context, userID, assetID int64, patch models.AssetPatch) error {
	query := `
		UPDATE assets a
		SET name = COALESCE($3, a.name),
		    code = COALESCE($4, a.code),
		    category = COALESCE($5, a.category),
		    target_weight = COALESCE($6, a.target_weight),
		    current_price = COALESCE($7, a.current_price),
		    avg_price = COALESCE($8, a.avg_price),
		    quantity = COALESCE($9, a.quantity),
		    updated = NOW()
		FROM accounts acc
		WHERE a.id = $1 AND acc.id = a.account_id AND acc.user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, assetID, userID,
		patch.Name, patch.Code, patch.Category,
		patch.TargetWeight, patch.CurrentPrice, patch.AvgPrice, patch.Quantity)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// Delete removes an asset owned by the user.
func (r *AssetRepository) Delete(ctx context.Context, userID, assetID int64) error {
	query := `
		DELETE FROM assets a
		USING accounts acc
		WHERE a.id = $1 AND acc.id = a.account_id AND acc.user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, assetID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// ListCoded returns the user's assets that carry a lookup code, for bulk
// price refresh.
func (r *AssetRepository) ListCoded(ctx context.Context, userID int64) ([]models.Asset, error) {
	query := `
		SELECT a.id, a.account_id, a.name, a.code, a.category,
		       a.target_weight, a.current_price, a.avg_price, a.quantity
		FROM assets a
		JOIN accounts acc ON acc.id = a.account_id
		WHERE acc.user_id = $1 AND a.code <> ''
		ORDER BY a.id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coded assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		err := rows.Scan(&a.ID, &a.AccountID, &a.Name, &a.Code, &a.Category,
			&a.TargetWeight, &a.CurrentPrice, &a.AvgPrice, &a.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list coded assets: %w", err)
	}
	return assets, nil
}

// ListAllCoded returns every coded asset in the system, for the
// scheduled refresh.
func (r *AssetRepository) ListAllCoded(ctx context.Context) ([]models.Asset, error) {
	query := `
		SELECT id, account_id, name, code, category,
		       target_weight, current_price, avg_price, quantity
		FROM assets
		WHERE code <> ''
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list coded assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var a models.Asset
		err := rows.Scan(&a.ID, &a.AccountID, &a.Name, &a.Code, &a.Category,
			&a.TargetWeight, &a.CurrentPrice, &a.AvgPrice, &a.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list coded assets: %w", err)
	}
	return assets, nil
}

// GetForUpdate locks and retrieves an asset inside a transaction.
func (r *AssetRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, userID, assetID int64) (*models.Asset, error) {
	query := `
		SELECT a.id, a.account_id, a.name, a.code, a.category,
		       a.target_weight, a.current_price, a.avg_price, a.quantity
		FROM assets a
		JOIN accounts acc ON acc.id = a.account_id
		WHERE a.id = $1 AND acc.user_id = $2
		FOR UPDATE OF a
	`
	a := &models.Asset{}
	err := tx.QueryRow(ctx, query, assetID, userID).Scan(
		&a.ID, &a.AccountID, &a.Name, &a.Code, &a.Category,
		&a.TargetWeight, &a.CurrentPrice, &a.AvgPrice, &a.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock asset: %w", err)
	}
	return a, nil
}

// UpdatePosition sets an asset's quantity and average price inside a
// transaction.
func (r *AssetRepository) UpdatePosition(ctx context.Context, tx pgx.Tx, assetID int64, quantity, avgPrice float64) error {
	_, err := tx.Exec(ctx,
		`UPDATE assets SET quantity = $2, avg_price = $3, updated = NOW() WHERE id = $1`,
		assetID, quantity, avgPrice)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// UpdatePrice sets just the current price of an asset.
func (r *AssetRepository) UpdatePrice(ctx context.Context, assetID int64, price float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET current_price = $2, updated = NOW() WHERE id = $1`, assetID, price)
	if err != nil {
		return fmt.Errorf("failed to update price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}
