package yumdb

import (
	"context"
	"errors"
	"testing"

	"github.com/hughsie/zif"
)

func testPkg() *zif.Package {
	return &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}
}

func TestSetGetRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	p := testPkg()

	if err := s.Set(ctx, p, "from_repo", []byte("updates")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, p, "from_repo")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "updates" {
		t.Errorf("Get = %q, want %q", got, "updates")
	}
}

func TestGetMissingKey(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Get(context.Background(), testPkg(), "nonexistent")
	if err == nil {
		t.Fatal("expected an error for a missing key")
	}
	var zerr *zif.Error
	if !errors.As(err, &zerr) {
		t.Fatalf("error %v is not a *zif.Error", err)
	}
}

func TestRemoveAndRemoveAll(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	p := testPkg()

	if err := s.Set(ctx, p, "reason", []byte("user")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, p, "installed_by", []byte("0")); err != nil {
		t.Fatal(err)
	}

	if err := s.Remove(ctx, p, "reason"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(ctx, p, "reason"); err == nil {
		t.Error("expected reason to be gone after Remove")
	}

	keys, err := s.GetKeys(ctx, p)
	if err != nil {
		t.Fatalf("GetKeys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "installed_by" {
		t.Fatalf("GetKeys = %v, want [installed_by]", keys)
	}

	if err := s.RemoveAll(ctx, p); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	keys, err = s.GetKeys(ctx, p)
	if err != nil {
		t.Fatalf("GetKeys after RemoveAll: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("GetKeys after RemoveAll = %v, want none", keys)
	}
}

func TestGetPackages(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	foo := testPkg()
	bar := &zif.Package{Name: "bar", Version: "2.0", Release: "3", Arch: "noarch"}
	if err := s.Set(ctx, foo, "reason", []byte("user")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, bar, "reason", []byte("dep")); err != nil {
		t.Fatal(err)
	}

	pkgs, err := s.GetPackages(ctx)
	if err != nil {
		t.Fatalf("GetPackages: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("GetPackages returned %d entries, want 2", len(pkgs))
	}
	names := map[string]bool{}
	for _, p := range pkgs {
		names[p.Name] = true
	}
	if !names["foo"] || !names["bar"] {
		t.Fatalf("GetPackages = %+v, want foo and bar", pkgs)
	}
}

func TestGetPackagesEmptyRoot(t *testing.T) {
	s := New(t.TempDir() + "/does-not-exist")
	pkgs, err := s.GetPackages(context.Background())
	if err != nil {
		t.Fatalf("GetPackages on a missing root: %v", err)
	}
	if pkgs != nil {
		t.Fatalf("GetPackages = %+v, want nil for a missing root", pkgs)
	}
}
