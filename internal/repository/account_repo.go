package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VeritasForge/snowball/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// ListByUser returns the user's accounts with their assets, ordered by
// id. Only raw fields come from the database; derived fields are the
// valuation engine's job.
func (r *AccountRepository) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `
		SELECT id, name, cash
		FROM accounts
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Cash); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	for i := range accounts {
		assets, err := r.listAssets(ctx, accounts[i].ID)
		if err != nil {
			return nil, err
		}
		accounts[i].Assets = assets
	}
	return accounts, nil
}

func (r *AccountRepository) listAssets(ctx context.Context, accountID int64) ([]models.Asset, error) {
	query := `
		SELECT id, account_id, name, code, category,
		       target_weight, current_price, avg_price, quantity
		FROM assets
		WHERE account_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
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
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// Create inserts a new account for the user and fills in the generated id.
func (r *AccountRepository) Create(ctx context.Context, userID int64, acc *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, name, cash)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.pool.QueryRow(ctx, query, userID, acc.Name, acc.Cash).Scan(&acc.ID); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Get retrieves one of the user's accounts with its assets.
func (r *AccountRepository) Get(ctx context.Context, userID, accountID int64) (*models.Account, error) {
	query := `
		SELECT id, name, cash
		FROM accounts
		WHERE id = $1 AND user_id = $2
	`
	acc := &models.Account{}
	err := r.pool.QueryRow(ctx, query, accountID, userID).Scan(&acc.ID, &acc.Name, &acc.Cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	assets, err := r.listAssets(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	acc.Assets = assets
	return acc, nil
}

// Update patches an account's name and/or cash. Nil fields are left
// untouched.
func (r *AccountRepository) Update(ctx context.Context, userID, accountID int64, patch models.UpdateAccountRequest) error {
	query := `
		UPDATE accounts
		SET name = COALESCE($3, name),
		    cash = COALESCE($4, cash),
		    updated = NOW()
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, accountID, userID, patch.Name, patch.Cash)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete removes an account and, via cascade, its assets.
func (r *AccountRepository) Delete(ctx context.Context, userID, accountID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// GetCashForUpdate locks an account row inside a transaction and
// returns its cash balance.
func (r *AccountRepository) GetCashForUpdate(ctx context.Context, tx pgx.Tx, accountID int64) (float64, error) {
	var cash float64
	err := tx.QueryRow(ctx,
		`SELECT cash FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock account: %w", err)
	}
	return cash, nil
}

// SetCash sets an account's cash inside a transaction.
func (r *AccountRepository) SetCash(ctx context.Context, tx pgx.Tx, accountID int64, cash float64) error {
	_, err := tx.Exec(ctx,
		`UPDATE accounts SET cash = $2, updated = NOW() WHERE id = $1`, accountID, cash)
	if err != nil {
		return fmt.Errorf("failed to set cash: %w", err)
	}
	return nil
}

// CountByUser reports how many accounts the user has.
func (r *AccountRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
