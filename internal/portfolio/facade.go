// Package portfolio is the single entry point the presentation layer
// depends on. It fixes the guest/authenticated decision once, routes
// every operation to the dual-mode store, and normalizes all outcomes
// into Result values: no error ever escapes this boundary uncaught.
package portfolio

import (
	"context"
	"sync/atomic"

	log "github.com/sirupsen/logrus"

	"github.com/VeritasForge/snowball/internal/models"
	"github.com/VeritasForge/snowball/internal/session"
	"github.com/VeritasForge/snowball/internal/store"
)

// Result is the uniform outcome of a facade operation.
type Result struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	UpdatedCount int    `json:"updated_count,omitempty"`
}

func failure(err error) Result {
	return Result{Success: false, Message: err.Error()}
}

// Portfolio composes the session and the dual-mode store.
type Portfolio struct {
	store   *store.Store
	guest   bool
	loading atomic.Bool
}

// New builds the facade. The guest decision is taken here, once, from
// the session, and the store's cached data is wired to the session's
// clear lifecycle.
func New(sess *session.Session, st *store.Store) *Portfolio {
	sess.OnClear(st.ClearSnapshot)
	return &Portfolio{
		store: st,
		guest: !sess.IsAuthenticated(),
	}
}

// IsGuest reports whether this facade operates on local-only data.
func (p *Portfolio) IsGuest() bool { return p.guest }

// IsLoading reports whether a fetch is in flight.
func (p *Portfolio) IsLoading() bool { return p.loading.Load() }

// Accounts returns the current snapshot without touching any backend.
func (p *Portfolio) Accounts() []models.Account {
	return p.store.Accounts()
}

// FetchAccounts refreshes the snapshot from the backing source.
func (p *Portfolio) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	p.loading.Store(true)
	defer p.loading.Store(false)

	accounts, err := p.store.FetchAll(ctx)
	if err != nil {
		log.Errorf("fetch failed: %v", err)
		return nil, err
	}
	return accounts, nil
}

// AddAsset creates a new position in the given account.
func (p *Portfolio) AddAsset(ctx context.Context, accountID int64, asset models.Asset) Result {
	if err := p.store.AddAsset(ctx, accountID, asset); err != nil {
		log.Errorf("add asset failed: %v", err)
		return failure(err)
	}
	return Result{Success: true}
}

// UpdateAsset applies field edits to a position.
func (p *Portfolio) UpdateAsset(ctx context.Context, id int64, edits ...store.AssetEdit) Result {
	if err := p.store.UpdateAsset(ctx, id, edits...); err != nil {
		log.Errorf("update asset %d failed: %v", id, err)
		return failure(err)
	}
	return Result{Success: true}
}

// DeleteAsset removes a position.
func (p *Portfolio) DeleteAsset(ctx context.Context, id int64) Result {
	if err := p.store.DeleteAsset(ctx, id); err != nil {
		log.Errorf("delete asset %d failed: %v", id, err)
		return failure(err)
	}
	return Result{Success: true}
}

// UpdateCash sets an account's cash from a display string.
func (p *Portfolio) UpdateCash(ctx context.Context, accountID int64, amount string) Result {
	if err := p.store.UpdateCash(ctx, accountID, amount); err != nil {
		log.Errorf("update cash for account %d failed: %v", accountID, err)
		return failure(err)
	}
	return Result{Success: true}
}

// CreateAccount creates a named account (authenticated only).
func (p *Portfolio) CreateAccount(ctx context.Context, name string) Result {
	acc, err := p.store.CreateAccount(ctx, name)
	if err != nil {
		log.Errorf("create account failed: %v", err)
		return failure(err)
	}
	return Result{Success: true, ID: acc.ID}
}

// RenameAccount changes an account's display name.
func (p *Portfolio) RenameAccount(ctx context.Context, accountID int64, name string) Result {
	if err := p.store.RenameAccount(ctx, accountID, name); err != nil {
		log.Errorf("rename account %d failed: %v", accountID, err)
		return failure(err)
	}
	return Result{Success: true, Name: name}
}

// DeleteAccount removes an account (authenticated only).
func (p *Portfolio) DeleteAccount(ctx context.Context, accountID int64) Result {
	if err := p.store.DeleteAccount(ctx, accountID); err != nil {
		log.Errorf("delete account %d failed: %v", accountID, err)
		return failure(err)
	}
	return Result{Success: true}
}

// RefreshAllPrices triggers the server-side bulk quote refresh.
func (p *Portfolio) RefreshAllPrices(ctx context.Context) Result {
	count, err := p.store.RefreshAllPrices(ctx)
	if err != nil {
		log.Errorf("price refresh failed: %v", err)
		return failure(err)
	}
	return Result{Success: true, UpdatedCount: count}
}

// LookupAndApplyCode resolves a symbol and applies the quote to an asset.
func (p *Portfolio) LookupAndApplyCode(ctx context.Context, id int64, code string) Result {
	name, err := p.store.LookupAndApplyCode(ctx, id, code)
	if err != nil {
		log.Errorf("lookup %q failed: %v", code, err)
		return failure(err)
	}
	return Result{Success: true, Name: name}
}

// ExecuteTrade applies a rebalancing trade server-side.
func (p *Portfolio) ExecuteTrade(ctx context.Context, assetID, quantity int64, price float64) Result {
	if err := p.store.ExecuteTrade(ctx, assetID, quantity, price); err != nil {
		log.Errorf("trade for asset %d failed: %v", assetID, err)
		return failure(err)
	}
	return Result{Success: true}
}

// SyncGuestData migrates locally stored guest data to the server after
// login.
func (p *Portfolio) SyncGuestData(ctx context.Context) Result {
	if err := p.store.SyncGuestData(ctx); err != nil {
		log.Errorf("guest sync failed: %v", err)
		return failure(err)
	}
	return Result{Success: true}
}
