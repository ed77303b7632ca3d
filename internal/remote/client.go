// Package remote is the typed client for the account/asset service. All
// calls go through the session token gateway, which owns credential
// attachment and refresh.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/VeritasForge/snowball/internal/gateway"
	"github.com/VeritasForge/snowball/internal/models"
)

// Client wraps the remote HTTP contract.
type Client struct {
	gw *gateway.Gateway
}

// NewClient creates a Client on top of an authenticated gateway.
func NewClient(gw *gateway.Gateway) *Client {
	return &Client{gw: gw}
}

// FetchAccounts returns the server's authoritative account snapshot,
// derived fields included.
func (c *Client) FetchAccounts(ctx context.Context) ([]models.Account, error) {
	resp, err := c.gw.Do(ctx, http.MethodGet, "/accounts", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var accounts []models.Account
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}

// CreateAccount creates a named account and returns the server copy.
func (c *Client) CreateAccount(ctx context.Context, name string, cash float64) (models.Account, error) {
	resp, err := c.gw.Do(ctx, http.MethodPost, "/accounts", models.CreateAccountRequest{Name: name, Cash: cash})
	if err != nil {
		return models.Account{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Account{}, responseError(resp)
	}

	var acc models.Account
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return models.Account{}, fmt.Errorf("failed to decode created account: %w", err)
	}
	return acc, nil
}

// UpdateAccount patches an account's name and/or cash.
func (c *Client) UpdateAccount(ctx context.Context, id int64, patch models.UpdateAccountRequest) error {
	resp, err := c.gw.Do(ctx, http.MethodPatch, fmt.Sprintf("/accounts/%d", id), patch)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// DeleteAccount removes an account and everything in it.
func (c *Client) DeleteAccount(ctx context.Context, id int64) error {
	resp, err := c.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/accounts/%d", id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// CreateAsset adds an empty position to an account.
func (c *Client) CreateAsset(ctx context.Context, accountID int64, name string, category models.Category) (models.Asset, error) {
	req := models.CreateAssetRequest{AccountID: accountID, Name: name, Category: category}
	resp, err := c.gw.Do(ctx, http.MethodPost, "/assets", req)
	if err != nil {
		return models.Asset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Asset{}, responseError(resp)
	}

	var a models.Asset
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return models.Asset{}, fmt.Errorf("failed to decode created asset: %w", err)
	}
	return a, nil
}

// UpdateAsset patches an asset's raw fields.
func (c *Client) UpdateAsset(ctx context.Context, id int64, patch models.AssetPatch) error {
	resp, err := c.gw.Do(ctx, http.MethodPatch, fmt.Sprintf("/assets/%d", id), patch)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// DeleteAsset removes a position.
func (c *Client) DeleteAsset(ctx context.Context, id int64) error {
	resp, err := c.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/assets/%d", id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	return nil
}

// ExecuteTrade applies a buy or sell server-side, adjusting cash and
// average price, and returns the recomputed account.
func (c *Client) ExecuteTrade(ctx context.Context, assetID, quantity int64, price float64) (models.Account, error) {
	req := models.ExecuteTradeRequest{AssetID: assetID, ActionQuantity: quantity, Price: price}
	resp, err := c.gw.Do(ctx, http.MethodPost, "/assets/execute", req)
	if err != nil {
		return models.Account{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Account{}, responseError(resp)
	}

	var acc models.Account
	if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
		return models.Account{}, fmt.Errorf("failed to decode trade result: %w", err)
	}
	return acc, nil
}

// UpdateAllPrices asks the server to refresh every coded asset's price
// and reports how many were updated.
func (c *Client) UpdateAllPrices(ctx context.Context) (int, error) {
	resp, err := c.gw.Do(ctx, http.MethodPost, "/assets/update-all-prices", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, responseError(resp)
	}

	var out models.UpdateAllPricesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode price update result: %w", err)
	}
	return out.UpdatedCount, nil
}

// Lookup resolves a symbol code to a name, price and inferred category.
func (c *Client) Lookup(ctx context.Context, code string) (models.LookupResponse, error) {
	resp, err := c.gw.Do(ctx, http.MethodGet, "/finance/lookup?code="+url.QueryEscape(code), nil)
	if err != nil {
		return models.LookupResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.LookupResponse{}, responseError(resp)
	}

	var out models.LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.LookupResponse{}, fmt.Errorf("failed to decode lookup result: %w", err)
	}
	return out, nil
}

// SyncPortfolio uploads locally stored guest accounts for migration and
// returns the resulting server snapshot.
func (c *Client) SyncPortfolio(ctx context.Context, accounts []models.Account) ([]models.Account, error) {
	resp, err := c.gw.Do(ctx, http.MethodPost, "/users/sync", models.SyncRequest{Accounts: accounts})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var out []models.Account
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sync result: %w", err)
	}
	return out, nil
}

// responseError turns a non-2xx response into an error carrying the
// human-readable body the server sent.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var er models.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, er.Message)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
}
