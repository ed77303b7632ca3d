// Package store is the dual-mode data store: the single owner of the
// in-memory account snapshot handed to callers. In guest mode every
// mutation applies synchronously to local storage; in authenticated mode
// mutations apply optimistically to the snapshot and sync to the remote
// service in the background.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/VeritasForge/snowball/internal/localstore"
	"github.com/VeritasForge/snowball/internal/models"
	"github.com/VeritasForge/snowball/internal/remote"
	"github.com/VeritasForge/snowball/internal/valuation"
)

var (
	// ErrGuestAccounts rejects account management without a session:
	// guest mode is single-account by design.
	ErrGuestAccounts = errors.New("account management requires a signed-in session")
	// ErrGuestPriceRefresh rejects the bulk price refresh without a
	// session.
	ErrGuestPriceRefresh = errors.New("bulk price refresh requires a signed-in session")
	// ErrNotAuthenticated rejects the remaining server-only operations.
	ErrNotAuthenticated = errors.New("operation requires a signed-in session")
	// ErrEmptyCode rejects a lookup with no code before any network call.
	ErrEmptyCode = errors.New("lookup code is required")
	// ErrInvalidAmount rejects a cash amount that is not a number.
	ErrInvalidAmount = errors.New("amount must be a number")

	ErrAssetNotFound   = errors.New("asset not found")
	ErrAccountNotFound = errors.New("account not found")
)

const guestAccountName = "Guest Portfolio"

// Store owns the account snapshot. The backing mode is fixed once at
// construction from whether a valid session exists.
type Store struct {
	guest  bool
	local  *localstore.Store
	remote *remote.Client

	mu        sync.RWMutex
	accounts  []models.Account
	guestName string
	// dirty marks that an optimistic write failed to reach the server;
	// the snapshot stays authoritative locally until the next FetchAll
	// reconciles it.
	dirty bool

	writes sync.WaitGroup
}

// New creates a Store. The remote client is used in guest mode only for
// the code lookup collaborator; the local store is used in authenticated
// mode only as the migration source for SyncGuestData.
func New(local *localstore.Store, rc *remote.Client, guest bool) *Store {
	return &Store{
		guest:     guest,
		local:     local,
		remote:    rc,
		guestName: guestAccountName,
	}
}

// IsGuest reports the backing mode.
func (s *Store) IsGuest() bool { return s.guest }

// Dirty reports whether an optimistic write has failed since the last
// authoritative fetch.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Wait blocks until all background writes issued so far have completed.
func (s *Store) Wait() {
	s.writes.Wait()
}

// ClearSnapshot drops all cached account data. Registered as a session
// clear hook so authenticated data never outlives the tokens.
func (s *Store) ClearSnapshot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = nil
	s.dirty = false
}

// Accounts returns a copy of the current snapshot.
func (s *Store) Accounts() []models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAccounts(s.accounts)
}

// FetchAll replaces the snapshot from the backing source: local storage
// re-aggregated in guest mode, the server's authoritative copy in
// authenticated mode. Any optimistic divergence is reconciled here.
func (s *Store) FetchAll(ctx context.Context) ([]models.Account, error) {
	if s.guest {
		return s.fetchGuest(ctx)
	}

	accounts, err := s.remote.FetchAccounts(ctx)
	if err != nil {
		// The previous snapshot stays untouched on a failed read.
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	s.mu.Lock()
	s.accounts = accounts
	s.dirty = false
	snapshot := copyAccounts(s.accounts)
	s.mu.Unlock()
	return snapshot, nil
}

// ensureLoaded hydrates the guest snapshot from local storage when no
// fetch has happened yet. The synthetic guest account exists whenever
// local data does, so a mutation right after construction must find it
// without an explicit FetchAll first.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if !s.guest {
		return nil
	}
	s.mu.RLock()
	loaded := s.accounts != nil
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	_, err := s.fetchGuest(ctx)
	return err
}

func (s *Store) fetchGuest(ctx context.Context) ([]models.Account, error) {
	assets, err := s.local.Assets(ctx)
	if err != nil {
		return nil, err
	}
	cash, err := s.local.Cash(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	acc := valuation.Recompute(models.Account{
		ID:     models.GuestAccountID,
		Name:   s.guestName,
		Cash:   cash,
		Assets: assets,
	})
	s.accounts = []models.Account{acc}
	snapshot := copyAccounts(s.accounts)
	s.mu.Unlock()
	return snapshot, nil
}

// AddAsset creates a new position. Guest assets get locally generated
// ids; authenticated assets are created server-side and the snapshot is
// refreshed so the server-assigned id is visible.
func (s *Store) AddAsset(ctx context.Context, accountID int64, a models.Asset) error {
	if a.Name == "" {
		a.Name = "New Asset"
	}
	if a.Category == "" {
		a.Category = models.CategoryStock
	}

	if s.guest {
		if _, err := s.local.AddAsset(ctx, a); err != nil {
			return err
		}
		_, err := s.fetchGuest(ctx)
		return err
	}

	if _, err := s.remote.CreateAsset(ctx, accountID, a.Name, a.Category); err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	_, err := s.FetchAll(ctx)
	return err
}

// UpdateAsset applies one or more field edits. The in-memory snapshot is
// mutated and re-aggregated synchronously before any persistence is
// attempted, so a read immediately after UpdateAsset always reflects the
// edit.
func (s *Store) UpdateAsset(ctx context.Context, id int64, edits ...AssetEdit) error {
	if len(edits) == 0 {
		return nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	ai, idx := s.findAsset(id)
	if ai < 0 {
		s.mu.Unlock()
		return ErrAssetNotFound
	}
	acc := s.accounts[ai]
	for _, e := range edits {
		e.apply(&acc.Assets[idx])
	}
	acc = valuation.Recompute(acc)
	s.accounts[ai] = acc

	var raw models.Asset
	for _, a := range acc.Assets {
		if a.ID == id {
			raw = a
			break
		}
	}
	s.mu.Unlock()

	if s.guest {
		return s.local.UpdateAsset(ctx, raw)
	}

	patch := mergePatch(edits)
	s.background(func() {
		if err := s.remote.UpdateAsset(context.Background(), id, patch); err != nil {
			log.Errorf("background asset update %d failed: %v", id, err)
			s.markDirty()
		}
	})
	return nil
}

// DeleteAsset removes a position, optimistically in authenticated mode.
func (s *Store) DeleteAsset(ctx context.Context, id int64) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	ai, idx := s.findAsset(id)
	if ai < 0 {
		s.mu.Unlock()
		return ErrAssetNotFound
	}
	acc := s.accounts[ai]
	acc.Assets = append(acc.Assets[:idx:idx], acc.Assets[idx+1:]...)
	s.accounts[ai] = valuation.Recompute(acc)
	s.mu.Unlock()

	if s.guest {
		return s.local.DeleteAsset(ctx, id)
	}

	s.background(func() {
		if err := s.remote.DeleteAsset(context.Background(), id); err != nil {
			log.Errorf("background asset delete %d failed: %v", id, err)
			s.markDirty()
		}
	})
	return nil
}

// UpdateCash sets an account's cash from a display string. Every asset's
// weight, target and rebalancing signal is re-derived against the new
// total in the same pass.
func (s *Store) UpdateCash(ctx context.Context, accountID int64, amount string) error {
	cleaned := parseStrict(amount)
	if cleaned == nil {
		return ErrInvalidAmount
	}
	cash := *cleaned

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	ai := s.findAccount(accountID)
	if ai < 0 {
		s.mu.Unlock()
		return ErrAccountNotFound
	}
	acc := s.accounts[ai]
	acc.Cash = cash
	s.accounts[ai] = valuation.Recompute(acc)
	s.mu.Unlock()

	if s.guest {
		return s.local.SetCash(ctx, cash)
	}

	s.background(func() {
		patch := models.UpdateAccountRequest{Cash: &cash}
		if err := s.remote.UpdateAccount(context.Background(), accountID, patch); err != nil {
			log.Errorf("background cash update for account %d failed: %v", accountID, err)
			s.markDirty()
		}
	})
	return nil
}

// CreateAccount creates a named account server-side. Guest mode is
// single-account and rejects this.
func (s *Store) CreateAccount(ctx context.Context, name string) (models.Account, error) {
	if s.guest {
		return models.Account{}, ErrGuestAccounts
	}

	acc, err := s.remote.CreateAccount(ctx, name, 0)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	if _, err := s.FetchAll(ctx); err != nil {
		return acc, err
	}
	return acc, nil
}

// RenameAccount changes an account's display name. In guest mode the
// rename lives in memory only; the synthetic account is rebuilt with the
// new name on subsequent reads.
func (s *Store) RenameAccount(ctx context.Context, accountID int64, name string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	ai := s.findAccount(accountID)
	if ai < 0 {
		s.mu.Unlock()
		return ErrAccountNotFound
	}
	s.accounts[ai].Name = name
	if s.guest {
		s.guestName = name
	}
	s.mu.Unlock()

	if s.guest {
		return nil
	}

	s.background(func() {
		patch := models.UpdateAccountRequest{Name: &name}
		if err := s.remote.UpdateAccount(context.Background(), accountID, patch); err != nil {
			log.Errorf("background rename for account %d failed: %v", accountID, err)
			s.markDirty()
		}
	})
	return nil
}

// DeleteAccount removes an account server-side. Rejected in guest mode.
func (s *Store) DeleteAccount(ctx context.Context, accountID int64) error {
	if s.guest {
		return ErrGuestAccounts
	}

	if err := s.remote.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.mu.Lock()
	if ai := s.findAccount(accountID); ai >= 0 {
		s.accounts = append(s.accounts[:ai:ai], s.accounts[ai+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// RefreshAllPrices triggers a server-side bulk price update and then
// replaces the snapshot with the authoritative result. Unsupported in
// guest mode.
func (s *Store) RefreshAllPrices(ctx context.Context) (int, error) {
	if s.guest {
		return 0, ErrGuestPriceRefresh
	}

	count, err := s.remote.UpdateAllPrices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh prices: %w", err)
	}
	if _, err := s.FetchAll(ctx); err != nil {
		return count, err
	}
	return count, nil
}

// LookupAndApplyCode resolves a symbol code through the lookup
// collaborator and applies the returned name, price and category to the
// asset. An empty code fails fast without any network call.
func (s *Store) LookupAndApplyCode(ctx context.Context, id int64, code string) (string, error) {
	if code == "" {
		return "", ErrEmptyCode
	}

	info, err := s.remote.Lookup(ctx, code)
	if err != nil {
		return "", fmt.Errorf("lookup failed: %w", err)
	}

	err = s.UpdateAsset(ctx, id,
		SetName(info.Name),
		SetCurrentPrice(info.Price),
		SetCode(code),
		SetCategory(info.Category),
	)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// ExecuteTrade applies a trade server-side (adjusting cash and average
// price) and refreshes the snapshot. Requires a session.
func (s *Store) ExecuteTrade(ctx context.Context, assetID, quantity int64, price float64) error {
	if s.guest {
		return ErrNotAuthenticated
	}

	if _, err := s.remote.ExecuteTrade(ctx, assetID, quantity, price); err != nil {
		return fmt.Errorf("trade failed: %w", err)
	}
	_, err := s.FetchAll(ctx)
	return err
}

// SyncGuestData uploads the locally stored guest portfolio for server
// migration, used right after login. A store without local data syncs
// nothing.
func (s *Store) SyncGuestData(ctx context.Context) error {
	if s.guest {
		return ErrNotAuthenticated
	}
	if s.local == nil {
		return nil
	}

	assets, err := s.local.Assets(ctx)
	if err != nil {
		return err
	}
	cash, err := s.local.Cash(ctx)
	if err != nil {
		return err
	}
	if len(assets) == 0 && cash == 0 {
		return nil
	}

	guest := models.Account{Name: guestAccountName, Cash: cash, Assets: assets}
	if _, err := s.remote.SyncPortfolio(ctx, []models.Account{guest}); err != nil {
		return fmt.Errorf("failed to sync guest portfolio: %w", err)
	}

	// The server copy is authoritative now; wiping local storage keeps a
	// later guest session from resurrecting already-migrated data.
	if err := s.local.Reset(ctx); err != nil {
		log.Errorf("failed to clear migrated guest data: %v", err)
	}

	_, err = s.FetchAll(ctx)
	return err
}

func (s *Store) background(fn func()) {
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		fn()
	}()
}

func (s *Store) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// findAsset returns the indices of the account and asset holding id.
// Caller holds s.mu.
func (s *Store) findAsset(id int64) (accountIdx, assetIdx int) {
	for i, acc := range s.accounts {
		for j, a := range acc.Assets {
			if a.ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

// findAccount returns the index of the account with id. Caller holds s.mu.
func (s *Store) findAccount(id int64) int {
	for i, acc := range s.accounts {
		if acc.ID == id {
			return i
		}
	}
	return -1
}

func copyAccounts(accounts []models.Account) []models.Account {
	out := make([]models.Account, len(accounts))
	for i, acc := range accounts {
		assets := make([]models.Asset, len(acc.Assets))
		copy(assets, acc.Assets)
		acc.Assets = assets
		out[i] = acc
	}
	return out
}
