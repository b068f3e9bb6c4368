package txn

import (
	"context"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/progress"
	"github.com/hughsie/zif/store"
)

// Resolve runs the iterative resolver of spec.md §4.3: one pass visits
// install, update, remove, then conflicts, in order, resolving at most
// one item per phase before the projected state is re-consulted.
func (t *Transaction) Resolve(ctx context.Context, pstate *progress.State) error {
	if err := t.requireState("Transaction.Resolve", StateClean); err != nil {
		return err
	}
	ctx = t.logCtx(ctx, "Resolve")

	if err := t.StoreLocal.Load(ctx); err != nil {
		return zif.NewTransactionError("Transaction.Resolve", zif.ErrTransactionFailed, "loading local store", err)
	}
	for _, rs := range t.StoresRemote {
		if err := rs.Load(ctx); err != nil {
			return zif.NewTransactionError("Transaction.Resolve", zif.ErrTransactionFailed, "loading remote store "+rs.ID(), err)
		}
	}

	installed, err := t.StoreLocal.GetPackages(ctx)
	if err != nil {
		return zif.NewTransactionError("Transaction.Resolve", zif.ErrTransactionFailed, "listing installed packages", err)
	}
	t.projected = store.NewMetaStore("projected", t.NativeArch)
	for _, p := range installed {
		t.projected.Add(p)
	}

	rstate := pstate.Child(t.maxSteps())

	for {
		if err := rstate.Done(0); err != nil {
			return err
		}

		progressed := false

		if it, ok := nextUnresolved(t.install); ok {
			err := t.resolveInstallItem(ctx, it)
			p, rerr := t.settle(it, err, rstate, 1)
			if rerr != nil {
				return rerr
			}
			progressed = progressed || p
		}

		if it, ok := nextUnresolved(t.update); ok {
			err := t.resolveUpdateItem(ctx, it)
			p, rerr := t.settle(it, err, rstate, 2)
			if rerr != nil {
				return rerr
			}
			progressed = progressed || p
		}

		if it, ok := nextUnresolved(t.remove); ok {
			err := t.resolveRemoveItem(ctx, it)
			p, rerr := t.settle(it, err, rstate, 1)
			if rerr != nil {
				return rerr
			}
			progressed = progressed || p
		}

		if it, ok := t.nextConflictCheck(); ok {
			err := t.resolveConflictItem(ctx, it)
			if err != nil {
				if t.Config != nil && t.Config.SkipBroken {
					t.cancelWithRelated(it)
				} else {
					return err
				}
			}
			progressed = true
		}

		t.resolveCount++
		if !progressed {
			break
		}
	}

	if t.countResolved() == 0 && (len(t.install)+len(t.update)+len(t.remove)) > 0 {
		return zif.NewTransactionError("Transaction.Resolve", zif.ErrNothingToDo,
			"no item in the transaction could be resolved", nil)
	}

	if err := rstate.Finished(); err != nil {
		return err
	}
	t.state = StateResolved
	zlog.Info(ctx).Int("install", len(t.GetInstall())).Int("update", len(t.GetUpdate())).Int("remove", len(t.GetRemove())).Msg("transaction resolved")
	return nil
}

func nextUnresolved(items []*Item) (*Item, bool) {
	for _, it := range items {
		if !it.Resolved && !it.Cancelled {
			return it, true
		}
	}
	return nil, false
}

// nextConflictCheck returns the first resolved install item that
// hasn't yet been conflict-checked.
func (t *Transaction) nextConflictCheck() (*Item, bool) {
	for _, it := range t.install {
		if it.Resolved && !it.Cancelled && !t.conflictChecked[store.IdentityOf(it.Package)] {
			return it, true
		}
	}
	return nil, false
}

// settle applies the result of resolving one item: on success marks it
// resolved and advances progress; on nothing-to-do drops it silently;
// on any other error either cancels it (with its related items) under
// skip-broken, or aborts the whole resolve. Returns whether progress
// was made this pass.
func (t *Transaction) settle(it *Item, err error, rstate *progress.State, steps int) (bool, error) {
	if err == nil {
		it.Resolved = true
		if derr := rstate.Done(steps); derr != nil {
			return false, derr
		}
		return true, nil
	}
	if isNothingToDo(err) {
		it.Cancelled = true
		return true, nil
	}
	if t.Config != nil && t.Config.SkipBroken {
		t.cancelWithRelated(it)
		return true, nil
	}
	return false, err
}

// cancelWithRelated marks it and everything in it.Related cancelled,
// per spec.md §4.3.6.
func (t *Transaction) cancelWithRelated(it *Item) {
	it.Cancelled = true
	for _, rel := range it.Related {
		rel.Cancelled = true
	}
}

func (t *Transaction) countResolved() int {
	n := 0
	for _, it := range t.install {
		if it.Resolved && !it.Cancelled {
			n++
		}
	}
	for _, it := range t.update {
		if it.Resolved && !it.Cancelled {
			n++
		}
	}
	for _, it := range t.remove {
		if it.Resolved && !it.Cancelled {
			n++
		}
	}
	return n
}
