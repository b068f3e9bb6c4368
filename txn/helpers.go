package txn

import (
	"context"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/pkgutil"
	"github.com/hughsie/zif/store"
)

// queueInstall adds p to the install queue with reason if not already
// present, and reflects the addition in the projected store. Used by
// the resolver's own phases to derive new install items; unlike
// AddInstall it isn't gated by transaction state.
func (t *Transaction) queueInstall(p *zif.Package, reason zif.Reason) *Item {
	id := store.IdentityOf(p)
	if it, ok := t.installIdx[id]; ok {
		return it
	}
	it := &Item{Package: p, Reason: reason}
	t.install = append(t.install, it)
	t.installIdx[id] = it
	t.projected.Add(p)
	return it
}

// queueRemove adds p to the remove queue with reason if not already
// present, and reflects the removal in the projected store.
func (t *Transaction) queueRemove(p *zif.Package, reason zif.Reason) *Item {
	id := store.IdentityOf(p)
	if it, ok := t.removeIdx[id]; ok {
		return it
	}
	it := &Item{Package: p, Reason: reason}
	t.remove = append(t.remove, it)
	t.removeIdx[id] = it
	t.projected.Remove(id)
	return it
}

// excludeIdentity returns pkgs with any package matching self's
// identity removed.
func excludeIdentity(pkgs []*zif.Package, self *zif.Package) []*zif.Package {
	selfID := store.IdentityOf(self)
	out := make([]*zif.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if store.IdentityOf(p) != selfID {
			out = append(out, p)
		}
	}
	return out
}

func sameName(pkgs []*zif.Package, name string) []*zif.Package {
	out := make([]*zif.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// oldestOf returns the oldest package in a same-name group, by
// CompareVersion. pkgs must be non-empty.
func oldestOf(pkgs []*zif.Package) *zif.Package {
	oldest := pkgs[0]
	for _, p := range pkgs[1:] {
		if zif.Compare(p, oldest, zif.CompareVersion) < 0 {
			oldest = p
		}
	}
	return oldest
}

// installedLookupFor returns an installedLookup closed over the
// transaction's projected store, for provider scoring.
func (t *Transaction) installedLookupFor() installedLookup {
	return func(name string) []*zif.Package {
		return sameName(t.projected.Packages, name)
	}
}

// installProvides reports whether any item already queued for install
// (resolved or not) provides d — step 3a of spec.md §4.3.1.
func (t *Transaction) installProvides(d zif.Depend) bool {
	for _, it := range t.install {
		if it.Cancelled {
			continue
		}
		if _, ok := it.Package.ProvidesDepend(d); ok {
			return true
		}
	}
	return false
}

// findOlderInstalled looks up a currently-projected package with name
// and an arch compatible with arch, used when a new provider is about
// to replace an existing install.
func (t *Transaction) findOlderInstalled(name, arch string) (*zif.Package, bool) {
	for _, p := range sameName(t.projected.Packages, name) {
		if arch == "" || p.Arch == arch || p.IsCompatibleArch(&zif.Package{Arch: arch}) {
			return p, true
		}
	}
	return nil, false
}

// findRemoteProvider searches every remote store for providers of d,
// then picks the best one for requirer per spec.md §4.3.5.
func (t *Transaction) findRemoteProvider(ctx context.Context, d zif.Depend, requirer *zif.Package) (*zif.Package, bool, error) {
	var candidates []*zif.Package
	for _, rs := range t.StoresRemote {
		found, err := rs.WhatProvides(ctx, []zif.Depend{d})
		if err != nil {
			continue
		}
		candidates = append(candidates, found...)
	}
	candidates = pkgutil.BestArch(pkgutil.Newest(candidates, zif.CompareVersion), t.NativeArch)
	exactArch := t.Config != nil && t.Config.ExactArch
	p, ok := best(candidates, requirer, t.installedLookupFor(), d, t.NativeArch, exactArch)
	return p, ok, nil
}
