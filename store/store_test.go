package store

import (
	"context"
	"testing"

	"github.com/hughsie/zif"
)

func TestMetaStoreResolve(t *testing.T) {
	ms := NewMetaStore("test", "x86_64")
	ms.Add(&zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"})
	ms.Add(&zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "i686"})

	ctx := context.Background()
	got, err := ms.Resolve(ctx, []string{"foo"}, FlagPreferNative)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].Arch != "x86_64" {
		t.Fatalf("Resolve(FlagPreferNative) = %+v, want only the native package", got)
	}
}

func TestMetaStoreResolveNotFound(t *testing.T) {
	ms := NewMetaStore("test", "x86_64")
	if _, err := ms.Resolve(context.Background(), []string{"missing"}, FlagName); err == nil {
		t.Error("expected an error resolving a name with no matches")
	}
}

func TestMetaStoreAddRemove(t *testing.T) {
	ms := NewMetaStore("test", "x86_64")
	p := &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}
	ms.Add(p)
	if _, ok := ms.FindPackage(context.Background(), IdentityOf(p)); !ok {
		t.Fatal("expected FindPackage to find the added package")
	}
	ms.Remove(IdentityOf(p))
	if _, ok := ms.FindPackage(context.Background(), IdentityOf(p)); ok {
		t.Fatal("expected FindPackage to miss after Remove")
	}
}

func TestWhatProvides(t *testing.T) {
	ms := NewMetaStore("test", "x86_64")
	p := &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64",
		Provides: []zif.Depend{zif.NewDepend("bar", zif.FlagAny, "")}}
	ms.Add(p)

	got, err := ms.WhatProvides(context.Background(), []zif.Depend{zif.NewDepend("bar", zif.FlagAny, "")})
	if err != nil {
		t.Fatalf("WhatProvides: %v", err)
	}
	if len(got) != 1 || got[0] != p {
		t.Fatalf("WhatProvides = %+v, want [p]", got)
	}
}

func TestSearchName(t *testing.T) {
	ms := NewMetaStore("test", "x86_64")
	ms.Add(&zif.Package{Name: "foobar", Version: "1.0", Release: "1", Arch: "x86_64"})
	ms.Add(&zif.Package{Name: "baz", Version: "1.0", Release: "1", Arch: "x86_64"})

	got, err := ms.SearchName(context.Background(), []string{"foo"})
	if err != nil {
		t.Fatalf("SearchName: %v", err)
	}
	if len(got) != 1 || got[0].Name != "foobar" {
		t.Fatalf("SearchName(foo) = %+v, want just foobar", got)
	}
}
