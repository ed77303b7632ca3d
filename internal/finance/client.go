// Package finance resolves asset codes to market data. It wraps a quote
// HTTP API and the keyword classifier used to slot new holdings into a
// category.
package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// ErrEmptySymbol is returned before any request is made for a blank code.
var ErrEmptySymbol = errors.New("symbol is required")

// ErrNoQuote is returned when the provider has no data for a symbol.
var ErrNoQuote = errors.New("no quote data for symbol")

// Client is an HTTP client for the quote API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a quote client against the production endpoint.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a quote client with a custom base URL (for testing)
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Quote is the parsed result of a symbol lookup.
type Quote struct {
	Symbol string
	Name   string
	Price  float64
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

// GetQuote fetches the latest price for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	resp, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var quoteResp globalQuoteResponse
	if err := json.Unmarshal(body, &quoteResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if quoteResp.GlobalQuote.Price == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoQuote, symbol)
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(quoteResp.GlobalQuote.Price, ",", ""), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	return &Quote{
		Symbol: symbol,
		Price:  price,
	}, nil
}

// Lookup resolves a symbol to a display name and current price. The
// provider has no single call for both, so it combines symbol search
// with a quote; when the search yields nothing the symbol itself is
// used as the name.
func (c *Client) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	q, err := c.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "SYMBOL_SEARCH")
	params.Set("keywords", symbol)
	params.Set("apikey", c.apiKey)

	q.Name = strings.ToUpper(q.Symbol)
	resp, err := c.doRequest(ctx, params)
	if err != nil {
		// Price is the critical part; a failed name search degrades
		// to the symbol as display name.
		return q, nil
	}
	defer resp.Body.Close()

	var searchResp symbolSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err == nil {
		for _, m := range searchResp.BestMatches {
			if strings.EqualFold(m.Symbol, symbol) && m.Name != "" {
				q.Name = m.Name
				break
			}
		}
	}
	return q, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values) (*http.Response, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	return resp, nil
}
