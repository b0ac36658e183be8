package permission

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-deliciousfood/internal/log"
)

func newTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := NewStore(path, log.Discard())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStoreInitialState(t *testing.T) {
	s := newTestStore(t, "")

	for _, p := range Required() {
		if s.Check(p) {
			t.Errorf("%s should not be granted initially", p)
		}
		if s.ShouldShowRationale(p) {
			t.Errorf("%s should not need a rationale initially", p)
		}
	}
}

func TestStoreRequestAndResolve(t *testing.T) {
	s := newTestStore(t, "")

	var shown []Request
	s.OnRequest(func(r Request) { shown = append(shown, r) })

	var gotCode RequestCode
	var gotPerms []Permission
	var gotGrants []Grant
	calls := 0
	s.OnResult(func(code RequestCode, perms []Permission, grants []Grant) {
		calls++
		gotCode, gotPerms, gotGrants = code, perms, grants
	})

	s.Request(RequestPermissions, Required())

	if len(shown) != 1 {
		t.Fatalf("expected 1 request shown, got %d", len(shown))
	}
	if len(shown[0].Permissions) != 2 {
		t.Fatalf("expected both permissions requested, got %v", shown[0].Permissions)
	}
	if _, ok := s.Pending(RequestPermissions); !ok {
		t.Fatal("request should be pending")
	}

	if err := s.Resolve(RequestPermissions, []Grant{Granted, Granted}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected 1 result callback, got %d", calls)
	}
	if gotCode != RequestPermissions || len(gotPerms) != 2 || !AllGranted(gotGrants) {
		t.Errorf("unexpected result: code=%d perms=%v grants=%v", gotCode, gotPerms, gotGrants)
	}
	if !s.Check(WriteExternalStorage) || !s.Check(Camera) {
		t.Error("both permissions should be granted after resolve")
	}
	if _, ok := s.Pending(RequestPermissions); ok {
		t.Error("request should no longer be pending")
	}
}

func TestStoreDenialEnablesRationale(t *testing.T) {
	s := newTestStore(t, "")
	s.Request(RequestPermissions, Required())

	if err := s.Resolve(RequestPermissions, []Grant{Denied, Granted}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if s.Check(WriteExternalStorage) {
		t.Error("storage should be denied")
	}
	if !s.ShouldShowRationale(WriteExternalStorage) {
		t.Error("denied storage should need a rationale")
	}
	if !s.Check(Camera) {
		t.Error("camera should be granted")
	}
	if s.ShouldShowRationale(Camera) {
		t.Error("granted camera should not need a rationale")
	}
}

func TestStoreResolveErrors(t *testing.T) {
	s := newTestStore(t, "")

	err := s.Resolve(RequestPermissions, []Grant{Granted, Granted})
	if !errors.Is(err, ErrUnknownRequest) {
		t.Errorf("expected ErrUnknownRequest, got %v", err)
	}

	s.Request(RequestPermissions, Required())
	err = s.Resolve(RequestPermissions, []Grant{Granted})
	if !errors.Is(err, ErrGrantMismatch) {
		t.Errorf("expected ErrGrantMismatch, got %v", err)
	}
	if _, ok := s.Pending(RequestPermissions); !ok {
		t.Error("a rejected answer should leave the request pending")
	}
}

func TestStoreDismissed(t *testing.T) {
	s := newTestStore(t, "")

	var grants []Grant
	called := false
	s.OnResult(func(_ RequestCode, _ []Permission, g []Grant) {
		called = true
		grants = g
	})

	s.Request(RequestPermissions, Required())
	if err := s.Resolve(RequestPermissions, nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if !called {
		t.Fatal("dismissal should still reach the handler")
	}
	if len(grants) != 0 {
		t.Errorf("expected empty grants, got %v", grants)
	}
	if s.ShouldShowRationale(WriteExternalStorage) {
		t.Error("dismissal should not count as a denial")
	}
}

func TestStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consent", "consent.json")

	s := newTestStore(t, path)
	s.Request(RequestPermissions, Required())
	if err := s.Resolve(RequestPermissions, []Grant{Granted, Denied}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	reloaded := newTestStore(t, path)
	if !reloaded.Check(WriteExternalStorage) {
		t.Error("storage grant should survive reload")
	}
	if reloaded.Check(Camera) || !reloaded.ShouldShowRationale(Camera) {
		t.Error("camera denial should survive reload")
	}

	if err := reloaded.Revoke(Camera); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if reloaded.ShouldShowRationale(Camera) {
		t.Error("revoked permission should not need a rationale")
	}

	if err := reloaded.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if newTestStore(t, path).Check(WriteExternalStorage) {
		t.Error("reset should clear persisted grants")
	}
}

func TestRevokeUnknown(t *testing.T) {
	s := newTestStore(t, "")
	if err := s.Revoke(Permission("microphone")); !errors.Is(err, ErrUnknownPermission) {
		t.Errorf("expected ErrUnknownPermission, got %v", err)
	}
}

func TestAllGranted(t *testing.T) {
	tests := []struct {
		name   string
		grants []Grant
		want   bool
	}{
		{"empty", nil, false},
		{"both granted", []Grant{Granted, Granted}, true},
		{"first denied", []Grant{Denied, Granted}, false},
		{"second denied", []Grant{Granted, Denied}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AllGranted(tc.grants); got != tc.want {
				t.Errorf("AllGranted(%v) = %v, want %v", tc.grants, got, tc.want)
			}
		})
	}
}
