package pkgutil

import (
	"testing"

	"github.com/hughsie/zif"
)

func pkg(name, version, release, arch string) *zif.Package {
	return &zif.Package{Name: name, Version: version, Release: release, Arch: arch}
}

func TestNewestOldest(t *testing.T) {
	pkgs := []*zif.Package{
		pkg("foo", "1.0", "1", "x86_64"),
		pkg("foo", "2.0", "1", "x86_64"),
		pkg("bar", "1.0", "1", "x86_64"),
	}

	newest := Newest(pkgs, zif.CompareVersion)
	if len(newest) != 2 {
		t.Fatalf("Newest returned %d packages, want 2", len(newest))
	}
	for _, p := range newest {
		if p.Name == "foo" && p.Version != "2.0" {
			t.Errorf("Newest(foo) = %s, want 2.0", p.Version)
		}
	}

	oldest := Oldest(pkgs, zif.CompareVersion)
	for _, p := range oldest {
		if p.Name == "foo" && p.Version != "1.0" {
			t.Errorf("Oldest(foo) = %s, want 1.0", p.Version)
		}
	}
}

func TestBestArch(t *testing.T) {
	pkgs := []*zif.Package{
		pkg("foo", "1.0", "1", "i686"),
		pkg("foo", "1.0", "1", "x86_64"),
		pkg("foo", "1.0", "1", "noarch"),
	}
	got := BestArch(pkgs, "x86_64")
	if len(got) != 1 || got[0].Arch != "x86_64" {
		t.Fatalf("BestArch = %+v, want only the native x86_64 package", got)
	}
}

func TestDedup(t *testing.T) {
	a := pkg("foo", "1.0", "1", "x86_64")
	b := pkg("foo", "1.0", "1", "x86_64")
	c := pkg("bar", "1.0", "1", "x86_64")
	got := Dedup([]*zif.Package{a, b, c})
	if len(got) != 2 {
		t.Fatalf("Dedup returned %d packages, want 2", len(got))
	}
	if got[0] != a {
		t.Error("Dedup should keep the first occurrence")
	}
}

func TestSatisfying(t *testing.T) {
	provider := pkg("foo", "1.0", "1", "x86_64")
	provider.Provides = []zif.Depend{zif.NewDepend("bar", zif.FlagAny, "")}
	nonProvider := pkg("baz", "1.0", "1", "x86_64")

	got := Satisfying([]*zif.Package{provider, nonProvider}, zif.NewDepend("bar", zif.FlagAny, ""))
	if len(got) != 1 || got[0] != provider {
		t.Fatalf("Satisfying = %+v, want only provider", got)
	}
}

func TestByName(t *testing.T) {
	a := pkg("foo", "1.0", "1", "x86_64")
	b := pkg("foo", "2.0", "1", "x86_64")
	c := pkg("bar", "1.0", "1", "x86_64")
	grouped := ByName([]*zif.Package{a, b, c})
	if len(grouped["foo"]) != 2 {
		t.Errorf("grouped[foo] has %d entries, want 2", len(grouped["foo"]))
	}
	if len(grouped["bar"]) != 1 {
		t.Errorf("grouped[bar] has %d entries, want 1", len(grouped["bar"]))
	}
}
