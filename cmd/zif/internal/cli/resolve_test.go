package cli

import (
	"context"
	"testing"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
)

func pkg(name, version, release, arch string) *zif.Package {
	return &zif.Package{Name: name, Version: version, Release: release, Arch: arch}
}

func TestSplitNEVRA(t *testing.T) {
	cases := []struct {
		arg      string
		wantName string
		wantOK   bool
	}{
		{"foo", "foo", false},
		{"foo-bar", "foo-bar", false},
		{"foo-1.0-1", "foo", true},
		{"foo-1.0-1.x86_64", "foo", true},
		{"foo-bar-1.0-1.x86_64", "foo-bar", true},
	}
	for _, c := range cases {
		name, _, ok := splitNEVRA(c.arg)
		if ok != c.wantOK {
			t.Errorf("splitNEVRA(%q) ok = %v, want %v", c.arg, ok, c.wantOK)
			continue
		}
		if ok && name != c.wantName {
			t.Errorf("splitNEVRA(%q) name = %q, want %q", c.arg, name, c.wantName)
		}
	}
}

func TestResolveNameNEVRAConstrained(t *testing.T) {
	remote := store.NewMetaStore("remote", "x86_64")
	remote.Add(pkg("foo", "1.0", "1", "x86_64"))
	remote.Add(pkg("foo", "2.0", "1", "x86_64"))

	p, err := resolveName(context.Background(), []store.Store{remote}, "foo-1.0-1.x86_64")
	if err != nil {
		t.Fatalf("resolveName: %v", err)
	}
	if p.Version != "1.0" {
		t.Errorf("resolveName picked version %s, want 1.0 (the NEVRA-pinned one, not the newest)", p.Version)
	}
}

func TestResolveNameBareNamePicksNewest(t *testing.T) {
	remote := store.NewMetaStore("remote", "x86_64")
	remote.Add(pkg("foo", "1.0", "1", "x86_64"))
	remote.Add(pkg("foo", "2.0", "1", "x86_64"))

	p, err := resolveName(context.Background(), []store.Store{remote}, "foo")
	if err != nil {
		t.Fatalf("resolveName: %v", err)
	}
	if p.Version != "2.0" {
		t.Errorf("resolveName picked version %s, want 2.0 (the newest)", p.Version)
	}
}

func TestResolveDowngradePicksOlderVersion(t *testing.T) {
	local := store.NewMetaStore("installed", "x86_64")
	local.Add(pkg("foo", "2.0", "1", "x86_64"))

	remote := store.NewMetaStore("remote", "x86_64")
	remote.Add(pkg("foo", "1.0", "1", "x86_64"))
	remote.Add(pkg("foo", "2.0", "1", "x86_64"))
	remote.Add(pkg("foo", "0.5", "1", "x86_64"))

	p, err := resolveDowngrade(context.Background(), local, []store.Store{remote}, "foo")
	if err != nil {
		t.Fatalf("resolveDowngrade: %v", err)
	}
	if p.Version != "1.0" {
		t.Errorf("resolveDowngrade picked version %s, want 1.0 (the newest version still older than installed 2.0)", p.Version)
	}
}

func TestResolveDowngradeFailsWithNoOlderCandidate(t *testing.T) {
	local := store.NewMetaStore("installed", "x86_64")
	local.Add(pkg("foo", "1.0", "1", "x86_64"))

	remote := store.NewMetaStore("remote", "x86_64")
	remote.Add(pkg("foo", "1.0", "1", "x86_64"))
	remote.Add(pkg("foo", "2.0", "1", "x86_64"))

	if _, err := resolveDowngrade(context.Background(), local, []store.Store{remote}, "foo"); err == nil {
		t.Fatal("resolveDowngrade should fail when no remote candidate is older than the installed version")
	}
}
