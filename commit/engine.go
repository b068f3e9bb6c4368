package commit

import "context"

// EventKind enumerates the RPM progress-callback states spec.md §4.5
// step 7 maps onto the hierarchical progress tree.
type EventKind uint8

const (
	EventTransStart EventKind = iota
	EventInstallStart
	EventRemoveStart
	EventProgress
	EventTransStop
)

// Event is one RPM progress callback invocation.
type Event struct {
	Kind          EventKind
	PackageNEVRA  string
	Amount, Total uint64
}

// RPMEngine is the external RPM transaction-set engine spec.md §6
// describes: ts_add_install/ts_add_erase, ts_set_root, ts_order, the
// filter flags, a test run and ts_run. Commit orchestrates it; it never
// reimplements librpm.
type RPMEngine interface {
	SetRoot(ctx context.Context, prefix string) error
	AddInstall(ctx context.Context, header any, allowUntrusted bool) error
	AddErase(ctx context.Context, header any) error
	Order(ctx context.Context) error
	SetFilterFlags(noDiskSpaceCheck, allowOldPackage bool)
	// RunTest performs rpm_check_debug's dry run, returning a
	// human-readable problem per conflict found.
	RunTest(ctx context.Context) ([]string, error)
	// Run executes the transaction set for real, delivering progress
	// events through cb.
	Run(ctx context.Context, cb func(Event)) error
}
