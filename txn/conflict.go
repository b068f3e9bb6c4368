package txn

import (
	"context"
	"fmt"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
)

// resolveConflictItem implements spec.md §4.3.4 for a single resolved
// install item P, checked at most once.
func (t *Transaction) resolveConflictItem(ctx context.Context, item *Item) error {
	p := item.Package
	pid := store.IdentityOf(p)

	for _, pr := range p.Provides {
		conflicters, err := t.projected.WhatConflicts(ctx, []zif.Depend{pr})
		if err != nil {
			continue
		}
		for _, c := range conflicters {
			if store.IdentityOf(c) == pid {
				continue
			}
			return zif.NewTransactionError("txn.resolveConflict", zif.ErrConflicting,
				fmt.Sprintf("%s conflicted by %s", p.NEVRA(), c.NEVRA()), nil)
		}
	}

	for _, c := range p.Conflicts {
		providers, err := t.projected.WhatProvides(ctx, []zif.Depend{c})
		if err != nil {
			continue
		}
		for _, prov := range providers {
			if store.IdentityOf(prov) == pid {
				continue
			}
			upd, err := t.tryQueueUpdate(ctx, prov)
			if err != nil {
				return zif.NewTransactionError("txn.resolveConflict", zif.ErrConflicting,
					fmt.Sprintf("%s conflicts with %s", p.NEVRA(), prov.NEVRA()), err)
			}
			if upd.Reason == zif.ReasonUpdateDepend {
				upd.Reason = zif.ReasonUpdateForConflict
			}
			item.Related = append(item.Related, upd)
		}
	}

	t.conflictChecked[pid] = true
	return nil
}
