package txn

import (
	"context"
	"errors"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
)

// resolveRemoveItem implements spec.md §4.3.3. It must run before
// item.Package is dropped from the projected store, since dependents
// are searched for while P is still considered installed.
func (t *Transaction) resolveRemoveItem(ctx context.Context, item *Item) error {
	p := item.Package
	pid := store.IdentityOf(p)

	if item.Reason == zif.ReasonRemoveUserAction && t.Config != nil && t.Config.IsProtected(p.Name) {
		return zif.NewTransactionError("txn.resolveRemove", zif.ErrTransactionFailed,
			p.Name+" is protected", nil)
	}

	for _, v := range p.Provides {
		requirers, err := t.projected.WhatRequires(ctx, []zif.Depend{v})
		if err != nil {
			continue
		}
		for _, q := range requirers {
			qid := store.IdentityOf(q)
			if qid == pid {
				continue
			}
			if t.satisfiedElsewhere(v, pid) {
				continue
			}
			switch {
			case item.Reason == zif.ReasonRemoveForUpdate:
				if upd, err := t.tryQueueUpdate(ctx, q); err == nil {
					item.Related = append(item.Related, upd)
				}
				// nothing-to-do (and any other failure to queue the
				// update) is tolerated, per spec.md §4.3.3.
			case item.Reason.IsDowngrade():
				rem := t.queueRemove(q, zif.ReasonDowngradeForDep)
				item.Related = append(item.Related, rem)
			default:
				rem := t.queueRemove(q, zif.ReasonRemoveForDep)
				item.Related = append(item.Related, rem)
			}
		}
	}

	t.projected.Remove(pid)
	return nil
}

// satisfiedElsewhere reports whether v is provided by some projected
// package other than excludeID, or by any item already queued for
// install.
func (t *Transaction) satisfiedElsewhere(v zif.Depend, excludeID store.Identity) bool {
	for _, other := range t.projected.Packages {
		if store.IdentityOf(other) == excludeID {
			continue
		}
		if _, ok := other.ProvidesDepend(v); ok {
			return true
		}
	}
	return t.installProvides(v)
}

// tryQueueUpdate resolves q (an installed package) as an update item
// immediately, queuing it only on success. A nothing-to-do result
// (already at the newest version) is returned as-is so callers can
// choose to tolerate it.
func (t *Transaction) tryQueueUpdate(ctx context.Context, q *zif.Package) (*Item, error) {
	id := store.IdentityOf(q)
	if existing, ok := t.updateIdx[id]; ok {
		return existing, nil
	}
	tmp := &Item{Package: q, Reason: zif.ReasonUpdateDepend}
	if err := t.resolveUpdateItem(ctx, tmp); err != nil {
		return nil, err
	}
	tmp.Resolved = true
	t.update = append(t.update, tmp)
	t.updateIdx[id] = tmp
	return tmp, nil
}

func isNothingToDo(err error) bool {
	return errors.Is(err, zif.ErrNothingToDo)
}
