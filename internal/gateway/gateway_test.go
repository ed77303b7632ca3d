package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/VeritasForge/snowball/internal/session"
)

func newTestSession(t *testing.T, access, refresh string) *session.Session {
	t.Helper()
	s, err := session.Load(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("session.Load: %v", err)
	}
	if err := s.SetTokens(access, refresh); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	return s
}

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(srv.URL, newTestSession(t, "access-1", "refresh-1"))
	resp, err := g.Do(context.Background(), http.MethodGet, "/accounts", nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer access-1" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls, requestCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "access-2"})
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCalls, 1)
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t, "stale-access", "refresh-1")
	g := New(srv.URL, sess)

	resp, err := g.Do(context.Background(), http.MethodGet, "/accounts", nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected retried request to succeed, got %d", resp.StatusCode)
	}
	if refreshCalls != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", refreshCalls)
	}
	if requestCalls != 2 {
		t.Errorf("expected original + one retry, got %d calls", requestCalls)
	}
	if access, _ := sess.Tokens(); access != "access-2" {
		t.Errorf("expected refreshed token persisted, got %q", access)
	}
}

// A second 401 after a successful refresh is returned to the caller;
// there is never more than one retry per original request.
func TestDoRetriesAtMostOnce(t *testing.T) {
	var requestCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "access-2"})
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := New(srv.URL, newTestSession(t, "access-1", "refresh-1"))
	resp, err := g.Do(context.Background(), http.MethodGet, "/accounts", nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected the second 401 to be surfaced, got %d", resp.StatusCode)
	}
	if requestCalls != 2 {
		t.Errorf("expected exactly 2 request attempts, got %d", requestCalls)
	}
}

func TestDoFailedRefreshClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t, "access-1", "bad-refresh")
	cachedDataCleared := false
	sess.OnClear(func() { cachedDataCleared = true })

	g := New(srv.URL, sess)
	_, err := g.Do(context.Background(), http.MethodGet, "/accounts", nil)

	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if sess.IsAuthenticated() {
		t.Error("expected session tokens cleared after failed refresh")
	}
	if !cachedDataCleared {
		t.Error("expected cached authenticated data to be cleared with the session")
	}
}

// Concurrent requests that all observe a 401 must share a single
// in-flight refresh call.
func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const workers = 8

	var refreshCalls, staleHits int32
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		// Hold the refresh until every worker has observed its 401, so
		// all of them pile onto the same in-flight exchange.
		<-release
		json.NewEncoder(w).Encode(map[string]string{"access_token": "access-2"})
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			if atomic.AddInt32(&staleHits, 1) == workers {
				close(release)
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	g := New(srv.URL, newTestSession(t, "stale-access", "refresh-1"))

	var wg sync.WaitGroup
	var failures int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := g.Do(context.Background(), http.MethodGet, "/accounts", nil)
			if err != nil {
				atomic.AddInt32(&failures, 1)
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				atomic.AddInt32(&failures, 1)
			}
		}()
	}
	wg.Wait()

	if failures != 0 {
		t.Errorf("%d of %d concurrent requests failed", failures, workers)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Errorf("expected a single shared refresh call, got %d", got)
	}
}
