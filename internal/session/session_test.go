package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsUnauthenticated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if s.IsAuthenticated() {
		t.Error("expected fresh session to be unauthenticated")
	}
}

func TestTokensSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	access, refresh := reloaded.Tokens()
	if access != "access-1" || refresh != "refresh-1" {
		t.Errorf("expected tokens to survive reload, got %q/%q", access, refresh)
	}
	if !reloaded.IsAuthenticated() {
		t.Error("expected reloaded session to be authenticated")
	}
}

func TestSetAccessTokenKeepsRefreshToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, _ := Load(path)
	if err := s.SetTokens("old-access", "refresh-1"); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	if err := s.SetAccessToken("new-access"); err != nil {
		t.Fatalf("SetAccessToken: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	access, refresh := reloaded.Tokens()
	if access != "new-access" || refresh != "refresh-1" {
		t.Errorf("expected rotated access with kept refresh, got %q/%q", access, refresh)
	}
}

func TestClearWipesTokensFileAndRunsHooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, _ := Load(path)
	if err := s.SetTokens("access-1", "refresh-1"); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}

	hookRan := false
	s.OnClear(func() { hookRan = true })

	s.Clear()

	if s.IsAuthenticated() {
		t.Error("expected cleared session to be unauthenticated")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, stat err = %v", err)
	}
	if !hookRan {
		t.Error("expected clear hook to run")
	}
}
