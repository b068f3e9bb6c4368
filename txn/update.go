package txn

import (
	"context"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/pkgutil"
)

// resolveUpdateItem implements spec.md §4.3.2. item.Package is the
// currently-installed package being considered for update.
func (t *Transaction) resolveUpdateItem(ctx context.Context, item *Item) error {
	p := item.Package

	// 1. Obsoleted-by check.
	obsoleters, err := t.obsoletersOf(ctx, p)
	if err != nil {
		return err
	}
	if len(obsoleters) > 0 {
		newest := pkgutil.Newest(obsoleters, zif.CompareVersion)[0]
		rem := t.queueRemove(p, zif.ReasonRemoveObsolete)
		ins := t.queueInstall(newest, item.Reason)
		item.Related = append(item.Related, rem, ins)
		return nil
	}

	// 2. Newest compatible-arch remote candidate.
	candidates := t.candidatesFor(ctx, p.Name, p.Arch)
	if len(candidates) == 0 {
		return zif.NewTransactionError("txn.resolveUpdate", zif.ErrNothingToDo,
			p.Name+" has no update candidate", nil)
	}
	newest := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case zif.Compare(c, newest, zif.CompareVersion) > 0:
			newest = c
		case zif.Compare(c, newest, zif.CompareVersion) == 0 && zif.ArchWeight(c.Arch) > zif.ArchWeight(newest.Arch):
			newest = c
		}
	}
	if !isNewerThan(newest, p) {
		return zif.NewTransactionError("txn.resolveUpdate", zif.ErrNothingToDo,
			p.Name+" already at the newest available version", nil)
	}

	limit := 1
	if t.Config != nil {
		limit = t.Config.InstallOnlyLimitFor(p.Name)
	}
	if limit == 1 {
		rem := t.queueRemove(p, zif.ReasonRemoveForUpdate)
		item.Related = append(item.Related, rem)
	}
	ins := t.queueInstall(newest, zif.ReasonInstallForUpdate)
	item.Related = append(item.Related, ins)
	return nil
}

func isNewerThan(a, b *zif.Package) bool { return zif.Compare(a, b, zif.CompareVersion) > 0 }

// obsoletersOf finds remote packages obsoleting p at >= p's version.
func (t *Transaction) obsoletersOf(ctx context.Context, p *zif.Package) ([]*zif.Package, error) {
	dep := zif.NewDepend(p.Name, zif.FlagGreaterOrEqual, p.Version)
	var out []*zif.Package
	for _, rs := range t.StoresRemote {
		found, err := rs.WhatObsoletes(ctx, []zif.Depend{dep})
		if err != nil {
			continue
		}
		out = append(out, found...)
	}
	return out, nil
}

// candidatesFor collects every compatible-arch remote package named
// name, across all remote stores.
func (t *Transaction) candidatesFor(ctx context.Context, name, arch string) []*zif.Package {
	var out []*zif.Package
	for _, rs := range t.StoresRemote {
		pkgs, err := rs.GetPackages(ctx)
		if err != nil {
			continue
		}
		for _, p := range pkgs {
			if p.Name == name && (arch == "" || p.IsCompatibleArch(&zif.Package{Arch: arch})) {
				out = append(out, p)
			}
		}
	}
	return out
}
