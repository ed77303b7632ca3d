package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/VeritasForge/snowball/internal/gateway"
	"github.com/VeritasForge/snowball/internal/session"
)

func newClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	sess, err := session.Load(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("session.Load: %v", err)
	}
	if err := sess.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	return NewClient(gateway.New(srvURL, sess))
}

func TestErrorBodySurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "bad_request", "message": "Not enough cash. Need 500.00, Have 100.00"}`)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.ExecuteTrade(context.Background(), 1, 5, 100)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Not enough cash") {
		t.Errorf("server message should reach the caller, got %q", err)
	}
}

func TestLookupEscapesCode(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		fmt.Fprint(w, `{"name": "X", "price": 1, "category": "Stock"}`)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	if _, err := c.Lookup(context.Background(), "A&B C"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotRaw != "code=A%26B+C" && gotRaw != "code=A%26B%20C" {
		t.Errorf("code not escaped: %q", gotRaw)
	}
}
