package zif

// Reason tags why a package ended up in a transaction's queues. It is
// persisted to history verbatim (spec.md §3, §4.6).
type Reason string

const (
	ReasonInstallUserAction Reason = "install-user-action"
	ReasonInstallDepend     Reason = "install-depend"
	ReasonInstallForUpdate  Reason = "install-for-update"

	ReasonRemoveUserAction Reason = "remove-user-action"
	ReasonRemoveAsOnlyN    Reason = "remove-as-onlyn"
	ReasonRemoveForDep     Reason = "remove-for-dep"
	ReasonRemoveForUpdate  Reason = "remove-for-update"
	ReasonRemoveObsolete   Reason = "remove-obsolete"

	ReasonUpdateUserAction  Reason = "update-user-action"
	ReasonUpdateSystem      Reason = "update-system"
	ReasonUpdateDepend      Reason = "update-depend"
	ReasonUpdateForConflict Reason = "update-for-conflict"

	ReasonDowngradeUserAction Reason = "downgrade-user-action"
	ReasonDowngradeForDep     Reason = "downgrade-for-dep"
	ReasonDowngradeInstalled  Reason = "downgrade-installed"
)

// IsUpdate reports whether r is one of the update-* family or
// install-for-update, used when a
// dependency's resolved reason should inherit "this came from an update."
func (r Reason) IsUpdate() bool {
	switch r {
	case ReasonUpdateUserAction, ReasonUpdateSystem, ReasonUpdateDepend, ReasonUpdateForConflict, ReasonInstallForUpdate:
		return true
	default:
		return false
	}
}

// IsDowngrade reports whether r is one of the downgrade-* family.
func (r Reason) IsDowngrade() bool {
	switch r {
	case ReasonDowngradeUserAction, ReasonDowngradeForDep, ReasonDowngradeInstalled:
		return true
	default:
		return false
	}
}
