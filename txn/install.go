package txn

import (
	"context"
	"fmt"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
)

// resolveInstallItem implements spec.md §4.3.1.
func (t *Transaction) resolveInstallItem(ctx context.Context, item *Item) error {
	p := item.Package
	cfg := t.Config

	// 1. Excludes check.
	if cfg != nil && cfg.IsExcluded(p.Name) {
		return zif.NewTransactionError("txn.resolveInstall", zif.ErrTransactionFailed,
			p.Name+" is excluded", nil)
	}

	// 2. Install-only-n. Excludes p itself: derived install items (queued
	// via queueInstall for an update/conflict/dependency resolution) are
	// reflected into the projected store as soon as they're queued, so by
	// the time this item's own resolveInstallItem pass runs, p may already
	// be present there and must not count against its own limit.
	existing := excludeIdentity(sameName(t.projected.Packages, p.Name), p)
	limit := 1
	if cfg != nil {
		limit = cfg.InstallOnlyLimitFor(p.Name)
	}
	if len(existing) >= limit {
		oldest := oldestOf(existing)
		if store.IdentityOf(oldest) == store.IdentityOf(p) {
			return zif.NewTransactionError("txn.resolveInstall", zif.ErrNothingToDo,
				p.Name+" already installed", nil)
		}
		reason := zif.ReasonRemoveAsOnlyN
		switch {
		case item.Reason.IsUpdate():
			reason = zif.ReasonRemoveForUpdate
		case item.Reason.IsDowngrade():
			reason = zif.ReasonDowngradeInstalled
		}
		rem := t.queueRemove(oldest, reason)
		item.Related = append(item.Related, rem)
	}

	// 3. Requires.
	for _, d := range p.Requires {
		if d.IsRPMLib() {
			continue
		}
		if t.installProvides(d) {
			continue
		}
		if providers, err := t.projected.WhatProvides(ctx, []zif.Depend{d}); err == nil && len(providers) > 0 {
			continue
		}
		provider, ok, err := t.findRemoteProvider(ctx, d, p)
		if err != nil {
			return err
		}
		if !ok {
			return zif.NewTransactionError("txn.resolveInstall", zif.ErrTransactionFailed,
				fmt.Sprintf("nothing provides %s needed by %s", d.Name, p.NEVRA()), nil)
		}
		pid := store.IdentityOf(provider)
		if _, already := t.projected.FindPackage(ctx, pid); already {
			continue
		}
		if older, found := t.findOlderInstalled(provider.Name, provider.Arch); found {
			reason := zif.ReasonRemoveForUpdate
			if zif.Compare(provider, older, zif.CompareVersion) < 0 {
				reason = zif.ReasonDowngradeForDep
			}
			rem := t.queueRemove(older, reason)
			item.Related = append(item.Related, rem)
		}
		instReason := zif.ReasonInstallDepend
		if item.Reason.IsUpdate() {
			instReason = zif.ReasonInstallForUpdate
		}
		ins := t.queueInstall(provider, instReason)
		item.Related = append(item.Related, ins)
	}

	// 4. Obsoletes.
	for _, o := range p.Obsoletes {
		providers, err := t.projected.WhatProvides(ctx, []zif.Depend{o})
		if err != nil {
			continue
		}
		for _, prov := range providers {
			if store.IdentityOf(prov) == store.IdentityOf(p) {
				continue
			}
			rem := t.queueRemove(prov, zif.ReasonRemoveObsolete)
			item.Related = append(item.Related, rem)
		}
	}

	return nil
}
