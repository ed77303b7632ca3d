// Package gateway mediates every authenticated request to the remote
// service: it attaches the bearer credential, and on an expired-session
// response performs exactly one refresh and one retry. A failed refresh
// clears the session entirely and surfaces ErrSessionExpired.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/VeritasForge/snowball/internal/session"
)

// ErrSessionExpired signals that the refresh token was rejected and the
// session has been cleared. The caller must re-authenticate; no further
// retries will help.
var ErrSessionExpired = errors.New("session expired")

// Gateway issues requests against a base URL on behalf of a session.
type Gateway struct {
	baseURL    string
	session    *session.Session
	httpClient *http.Client

	// Concurrent 401s share one in-flight refresh rather than each
	// issuing their own.
	refreshGroup singleflight.Group
}

// New creates a Gateway for the given API base URL.
func New(baseURL string, sess *session.Session) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		session: sess,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the API base URL the gateway was built with.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Do sends one request with the current access token. If the response is
// 401 it refreshes the access token once and retries once, returning the
// retried response. Any other response, including a second 401, is
// returned as-is. A nil body sends no payload; otherwise body is JSON
// encoded.
func (g *Gateway) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	access, _ := g.session.Tokens()
	resp, err := g.send(ctx, method, path, payload, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	newAccess, err := g.refreshAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return g.send(ctx, method, path, payload, newAccess)
}

// refreshAccessToken exchanges the refresh token for a new access token.
// Concurrent callers await the same exchange. On any failure the session
// is cleared before returning ErrSessionExpired, so storage never holds a
// half-refreshed credential.
func (g *Gateway) refreshAccessToken(ctx context.Context) (string, error) {
	v, err, _ := g.refreshGroup.Do("refresh", func() (any, error) {
		_, refresh := g.session.Tokens()
		if refresh == "" {
			g.session.Clear()
			return nil, ErrSessionExpired
		}

		payload, err := json.Marshal(map[string]string{"refresh_token": refresh})
		if err != nil {
			return nil, fmt.Errorf("failed to encode refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/refresh", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			log.Errorf("token refresh request failed: %v", err)
			g.session.Clear()
			return nil, ErrSessionExpired
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Warnf("token refresh rejected with status %d", resp.StatusCode)
			g.session.Clear()
			return nil, ErrSessionExpired
		}

		var tr struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil || tr.AccessToken == "" {
			log.Errorf("token refresh returned an unusable body: %v", err)
			g.session.Clear()
			return nil, ErrSessionExpired
		}

		if err := g.session.SetAccessToken(tr.AccessToken); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
		return tr.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (g *Gateway) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
