// Package txn implements the transaction engine of spec.md §4.3: the
// state machine and iterative resolver that turn a set of
// install/update/remove intents into a consistent plan against a
// local store and a federation of remote stores.
//
// Grounded on the teacher's controller state machine
// (internal/indexer/controller — a small enum-driven FSM walked by a
// single-threaded Next loop) adapted from "scan a layer" states to
// "clean → resolved → prepared → committed".
package txn

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quay/zlog"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/config"
	"github.com/hughsie/zif/store"
)

// State is the transaction's position in the clean → resolved →
// prepared → committed lifecycle (spec.md §3).
type State uint8

const (
	StateClean State = iota
	StateResolved
	StatePrepared
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateResolved:
		return "resolved"
	case StatePrepared:
		return "prepared"
	case StateCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// Item is one queued package with its reason and resolution bits.
//
// Related holds the set of items whose addition should be reverted
// together under skip-broken recovery (spec.md §4.3.6): when an item
// with dependents fails, every dependent item added because of it is
// cancelled alongside it.
type Item struct {
	Package   *zif.Package
	Reason    zif.Reason
	Resolved  bool
	Cancelled bool
	Related   []*Item
}

// Transaction holds the install/update/remove queues and drives them
// through Resolve, Prepare and Commit.
type Transaction struct {
	ID uuid.UUID

	StoreLocal   store.Store
	StoresRemote []store.Store
	Config       *config.Options
	NativeArch   string

	UID     string
	Cmdline string

	state State

	install []*Item
	update  []*Item
	remove  []*Item

	installIdx map[store.Identity]*Item
	updateIdx  map[store.Identity]*Item
	removeIdx  map[store.Identity]*Item

	resolveCount    int
	projected       *store.MetaStore
	conflictChecked map[store.Identity]bool

	// Download holds artifacts staged during Prepare for Commit to
	// consume; populated by Prepare, read by the commit package.
	Download []*zif.Package
}

// New constructs a clean Transaction.
func New(storeLocal store.Store, storesRemote []store.Store, cfg *config.Options, nativeArch, uid, cmdline string) *Transaction {
	return &Transaction{
		ID:           uuid.New(),
		StoreLocal:   storeLocal,
		StoresRemote: storesRemote,
		Config:       cfg,
		NativeArch:   nativeArch,
		UID:          uid,
		Cmdline:      cmdline,
		installIdx:      make(map[store.Identity]*Item),
		updateIdx:       make(map[store.Identity]*Item),
		removeIdx:       make(map[store.Identity]*Item),
		conflictChecked: make(map[store.Identity]bool),
	}
}

// State reports the transaction's current lifecycle state.
func (t *Transaction) State() State { return t.state }

// MarkCommitted transitions a prepared transaction to committed. It is
// called by the commit package once the RPM transaction set has run
// successfully; txn never runs librpm itself (spec.md §6).
func (t *Transaction) MarkCommitted() error {
	if err := t.requireState("Transaction.MarkCommitted", StatePrepared); err != nil {
		return err
	}
	t.state = StateCommitted
	return nil
}

func (t *Transaction) requireState(op string, want State) error {
	if t.state != want {
		return zif.NewTransactionError(op, zif.ErrTransactionFailed,
			fmt.Sprintf("requires state %s, have %s", want, t.state), nil)
	}
	return nil
}

// AddInstall queues p for install with reason. Adding the same
// (name,epoch,version,release,arch) twice is a no-op (spec.md §8
// property 1).
func (t *Transaction) AddInstall(p *zif.Package, reason zif.Reason) error {
	if err := t.requireState("Transaction.AddInstall", StateClean); err != nil {
		return err
	}
	return addItem(&t.install, t.installIdx, p, reason)
}

// AddUpdate queues the installed package p for update with reason. Per
// spec.md §4.3.2, the update item's Package is the *installed*
// package, not a remote candidate.
func (t *Transaction) AddUpdate(p *zif.Package, reason zif.Reason) error {
	if err := t.requireState("Transaction.AddUpdate", StateClean); err != nil {
		return err
	}
	return addItem(&t.update, t.updateIdx, p, reason)
}

// AddRemove queues p for removal with reason.
func (t *Transaction) AddRemove(p *zif.Package, reason zif.Reason) error {
	if err := t.requireState("Transaction.AddRemove", StateClean); err != nil {
		return err
	}
	return addItem(&t.remove, t.removeIdx, p, reason)
}

// AddDowngrade queues p (an older candidate than what's installed) for
// install with a downgrade-user-action reason; resolution recognizes
// the downgrade family via zif.Reason.IsDowngrade.
func (t *Transaction) AddDowngrade(p *zif.Package) error {
	return t.AddInstall(p, zif.ReasonDowngradeUserAction)
}

func addItem(queue *[]*Item, idx map[store.Identity]*Item, p *zif.Package, reason zif.Reason) error {
	id := store.IdentityOf(p)
	if _, ok := idx[id]; ok {
		return nil
	}
	item := &Item{Package: p, Reason: reason}
	*queue = append(*queue, item)
	idx[id] = item
	return nil
}

// GetInstall returns the non-cancelled queued installs, in insertion order.
func (t *Transaction) GetInstall() []*Item { return liveItems(t.install) }

// GetUpdate returns the non-cancelled queued updates, in insertion order.
func (t *Transaction) GetUpdate() []*Item { return liveItems(t.update) }

// GetRemove returns the non-cancelled queued removes, in insertion order.
func (t *Transaction) GetRemove() []*Item { return liveItems(t.remove) }

func liveItems(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if !it.Cancelled {
			out = append(out, it)
		}
	}
	return out
}

// maxSteps is the resolver's progress denominator (spec.md §4.3.7):
// updates count twice since each expands into an install+remove pair.
func (t *Transaction) maxSteps() int {
	return len(t.install) + 2*len(t.update) + len(t.remove)
}

func (t *Transaction) logCtx(ctx context.Context, op string) context.Context {
	return zlog.ContextWithValues(ctx, "component", "txn/Transaction."+op, "txn_id", t.ID.String())
}
