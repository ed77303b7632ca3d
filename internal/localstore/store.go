// Package localstore persists the guest-mode record set: the raw fields
// of the single synthetic account's assets plus its cash. Derived fields
// are never stored; they are recomputed by the valuation engine on every
// read.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/VeritasForge/snowball/internal/models"
)

// ErrAssetNotFound is returned when an asset id has no local row.
var ErrAssetNotFound = errors.New("asset not found in local storage")

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	code          TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT 'Stock',
	target_weight REAL NOT NULL DEFAULT 0,
	current_price REAL NOT NULL DEFAULT 0,
	avg_price     REAL NOT NULL DEFAULT 0,
	quantity      REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS wallet (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	cash REAL NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO wallet (id, cash) VALUES (1, 0);
`

// Store is a SQLite-backed guest record set.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the guest database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Assets returns every stored asset with raw fields only, bound to the
// synthetic guest account.
func (s *Store) Assets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, code, category, target_weight, current_price, avg_price, quantity
		FROM assets
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query local assets: %w", err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		a := models.Asset{AccountID: models.GuestAccountID}
		if err := rows.Scan(&a.ID, &a.Name, &a.Code, &a.Category, &a.TargetWeight, &a.CurrentPrice, &a.AvgPrice, &a.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan local asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// AddAsset stores a new asset and returns its locally generated id.
func (s *Store) AddAsset(ctx context.Context, a models.Asset) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (name, code, category, target_weight, current_price, avg_price, quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.Name, a.Code, a.Category, a.TargetWeight, a.CurrentPrice, a.AvgPrice, a.Quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to insert local asset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read local asset id: %w", err)
	}
	return id, nil
}

// UpdateAsset replaces the raw fields of an existing asset.
func (s *Store) UpdateAsset(ctx context.Context, a models.Asset) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assets
		SET name = ?, code = ?, category = ?, target_weight = ?, current_price = ?, avg_price = ?, quantity = ?
		WHERE id = ?
	`, a.Name, a.Code, a.Category, a.TargetWeight, a.CurrentPrice, a.AvgPrice, a.Quantity, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update local asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check local update: %w", err)
	}
	if n == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// DeleteAsset removes an asset.
func (s *Store) DeleteAsset(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete local asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check local delete: %w", err)
	}
	if n == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// Cash returns the guest account's cash balance.
func (s *Store) Cash(ctx context.Context) (float64, error) {
	var cash float64
	err := s.db.QueryRowContext(ctx, `SELECT cash FROM wallet WHERE id = 1`).Scan(&cash)
	if err != nil {
		return 0, fmt.Errorf("failed to read local cash: %w", err)
	}
	return cash, nil
}

// SetCash replaces the guest account's cash balance.
func (s *Store) SetCash(ctx context.Context, cash float64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE wallet SET cash = ? WHERE id = 1`, cash); err != nil {
		return fmt.Errorf("failed to update local cash: %w", err)
	}
	return nil
}

// Reset clears every asset and zeroes cash, destroying the guest account.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM assets`); err != nil {
		return fmt.Errorf("failed to clear local assets: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE wallet SET cash = 0 WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear local cash: %w", err)
	}
	return nil
}
