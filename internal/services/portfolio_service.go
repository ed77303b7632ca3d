package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/VeritasForge/snowball/internal/finance"
	"github.com/VeritasForge/snowball/internal/models"
	"github.com/VeritasForge/snowball/internal/repository"
	"github.com/VeritasForge/snowball/internal/valuation"
)

var (
	ErrInsufficientCash = errors.New("not enough cash for this purchase")
	ErrOversell         = errors.New("cannot sell more than you hold")
)

// quoteFetchers caps concurrent upstream quote requests during a bulk
// refresh.
const quoteFetchers = 5

// PortfolioService owns account and asset business logic. Every read
// goes through the valuation engine so derived fields are always
// consistent with the raw fields.
type PortfolioService struct {
	pool     *pgxpool.Pool
	accounts *repository.AccountRepository
	assets   *repository.AssetRepository
	quotes   *finance.Client
}

// NewPortfolioService creates a new PortfolioService
func NewPortfolioService(pool *pgxpool.Pool, accounts *repository.AccountRepository, assets *repository.AssetRepository, quotes *finance.Client) *PortfolioService {
	return &PortfolioService{pool: pool, accounts: accounts, assets: assets, quotes: quotes}
}

// ListAccounts returns the user's accounts with derived fields computed.
func (s *PortfolioService) ListAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return valuation.RecomputeAll(accounts), nil
}

// CreateAccount creates a named account and returns the stored copy.
func (s *PortfolioService) CreateAccount(ctx context.Context, userID int64, name string, cash float64) (models.Account, error) {
	acc := models.Account{Name: name, Cash: cash}
	if err := s.accounts.Create(ctx, userID, &acc); err != nil {
		return models.Account{}, err
	}
	return valuation.Recompute(acc), nil
}

// UpdateAccount patches an account's name and/or cash.
func (s *PortfolioService) UpdateAccount(ctx context.Context, userID, accountID int64, patch models.UpdateAccountRequest) (models.Account, error) {
	if err := s.accounts.Update(ctx, userID, accountID, patch); err != nil {
		return models.Account{}, err
	}
	acc, err := s.accounts.Get(ctx, userID, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return valuation.Recompute(*acc), nil
}

// DeleteAccount removes an account and its assets.
func (s *PortfolioService) DeleteAccount(ctx context.Context, userID, accountID int64) error {
	return s.accounts.Delete(ctx, userID, accountID)
}

// CreateAsset adds a position to one of the user's accounts. A missing
// category is inferred from the name.
func (s *PortfolioService) CreateAsset(ctx context.Context, userID int64, req models.CreateAssetRequest) (models.Asset, error) {
	a := models.Asset{
		AccountID: req.AccountID,
		Name:      req.Name,
		Category:  req.Category,
	}
	if a.Name == "" {
		a.Name = "New Asset"
	}
	if a.Category == "" {
		a.Category = finance.InferCategory(a.Name, "")
	}
	if err := s.assets.Create(ctx, userID, &a); err != nil {
		return models.Asset{}, err
	}
	return a, nil
}

// UpdateAsset patches an asset's raw fields and returns the recomputed
// owning account.
func (s *PortfolioService) UpdateAsset(ctx context.Context, userID, assetID int64, patch models.AssetPatch) (models.Account, error) {
	if err := s.assets.Update(ctx, userID, assetID, patch); err != nil {
		return models.Account{}, err
	}
	return s.accountForAsset(ctx, userID, assetID)
}

// DeleteAsset removes a position.
func (s *PortfolioService) DeleteAsset(ctx context.Context, userID, assetID int64) error {
	return s.assets.Delete(ctx, userID, assetID)
}

// ExecuteTrade applies a buy or sell in one transaction: cash moves by
// |quantity|*price, a buy re-weights the average price, and a sell can
// never push the held quantity negative. The execution price does not
// overwrite the stored market price.
func (s *PortfolioService) ExecuteTrade(ctx context.Context, userID, assetID, quantity int64, price float64) (models.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	asset, err := s.assets.GetForUpdate(ctx, tx, userID, assetID)
	if err != nil {
		return models.Account{}, err
	}
	cash, err := s.accounts.GetCashForUpdate(ctx, tx, asset.AccountID)
	if err != nil {
		return models.Account{}, err
	}

	newCash, newQty, newAvg, err := applyTrade(cash, asset.Quantity, asset.AvgPrice, quantity, price)
	if err != nil {
		return models.Account{}, err
	}

	if err := s.accounts.SetCash(ctx, tx, asset.AccountID, newCash); err != nil {
		return models.Account{}, err
	}
	if err := s.assets.UpdatePosition(ctx, tx, assetID, newQty, newAvg); err != nil {
		return models.Account{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Account{}, fmt.Errorf("failed to commit trade: %w", err)
	}

	acc, err := s.accounts.Get(ctx, userID, asset.AccountID)
	if err != nil {
		return models.Account{}, err
	}
	return valuation.Recompute(*acc), nil
}

// applyTrade computes the post-trade cash, quantity and average price.
// Positive quantity buys, negative sells.
func applyTrade(cash, qty, avgPrice float64, quantity int64, price float64) (newCash, newQty, newAvg float64, err error) {
	total := float64(quantity) * price
	if total < 0 {
		total = -total
	}

	if quantity > 0 {
		if cash < total {
			return 0, 0, 0, fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, total, cash)
		}
		newCash = cash - total
	} else {
		newCash = cash + total
	}

	newQty = qty + float64(quantity)
	if newQty < 0 {
		return 0, 0, 0, ErrOversell
	}

	newAvg = avgPrice
	if quantity > 0 && newQty > 0 {
		newAvg = (qty*avgPrice + float64(quantity)*price) / newQty
	}
	return newCash, newQty, newAvg, nil
}

// UpdateAllPrices refreshes the market price of every coded asset the
// user holds and reports how many got a fresh quote. Individual lookup
// failures are logged and skipped.
func (s *PortfolioService) UpdateAllPrices(ctx context.Context, userID int64) (int, error) {
	assets, err := s.assets.ListCoded(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.refreshPrices(ctx, assets), nil
}

// RefreshQuotes refreshes every coded asset in the system. Used by the
// nightly schedule.
func (s *PortfolioService) RefreshQuotes(ctx context.Context) (int, error) {
	assets, err := s.assets.ListAllCoded(ctx)
	if err != nil {
		return 0, err
	}
	return s.refreshPrices(ctx, assets), nil
}

func (s *PortfolioService) refreshPrices(ctx context.Context, assets []models.Asset) int {
	results := make([]bool, len(assets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteFetchers)
	for i, a := range assets {
		i, a := i, a
		g.Go(func() error {
			q, err := s.quotes.GetQuote(ctx, a.Code)
			if err != nil {
				log.Warnf("quote for %s failed: %v", a.Code, err)
				return nil
			}
			if err := s.assets.UpdatePrice(ctx, a.ID, q.Price); err != nil {
				log.Warnf("price update for %s failed: %v", a.Code, err)
				return nil
			}
			results[i] = true
			return nil
		})
	}
	g.Wait()

	count := 0
	for _, ok := range results {
		if ok {
			count++
		}
	}
	return count
}

// Lookup resolves a code to a name, price and inferred category.
func (s *PortfolioService) Lookup(ctx context.Context, code string) (models.LookupResponse, error) {
	q, err := s.quotes.Lookup(ctx, code)
	if err != nil {
		return models.LookupResponse{}, err
	}
	return models.LookupResponse{
		Name:     q.Name,
		Price:    q.Price,
		Category: finance.InferCategory(q.Name, code),
	}, nil
}

// SyncGuestPortfolio imports locally stored guest accounts for a user
// who has none yet, then returns the authoritative snapshot. A user who
// already has server-side accounts keeps them; the upload is ignored so
// a second login can never duplicate data.
func (s *PortfolioService) SyncGuestPortfolio(ctx context.Context, userID int64, uploaded []models.Account) ([]models.Account, error) {
	count, err := s.accounts.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return s.ListAccounts(ctx, userID)
	}

	for _, acc := range uploaded {
		name := acc.Name
		if name == "" {
			name = "My Portfolio"
		}
		created := models.Account{Name: name, Cash: acc.Cash}
		if err := s.accounts.Create(ctx, userID, &created); err != nil {
			return nil, err
		}
		for _, a := range acc.Assets {
			a.ID = 0
			a.AccountID = created.ID
			if a.Category == "" {
				a.Category = finance.InferCategory(a.Name, a.Code)
			}
			if err := s.assets.Create(ctx, userID, &a); err != nil {
				return nil, err
			}
		}
	}
	return s.ListAccounts(ctx, userID)
}

func (s *PortfolioService) accountForAsset(ctx context.Context, userID, assetID int64) (models.Account, error) {
	a, err := s.assets.Get(ctx, userID, assetID)
	if err != nil {
		return models.Account{}, err
	}
	acc, err := s.accounts.Get(ctx, userID, a.AccountID)
	if err != nil {
		return models.Account{}, err
	}
	return valuation.Recompute(*acc), nil
}
