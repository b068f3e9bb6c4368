package zif

import (
	"strings"

	rpmversion "github.com/knqyf263/go-rpm-version"
)

// DependFlag is the comparison a Depend carries against its Version.
//
// Flags combine by bitwise-or for the compound forms RPM uses
// (e.g. "less-or-equal" is Less|Equal).
type DependFlag uint8

const (
	FlagAny     DependFlag = 0
	FlagLess    DependFlag = 1 << 0
	FlagGreater DependFlag = 1 << 1
	FlagEqual   DependFlag = 1 << 2
	FlagUnknown DependFlag = 1 << 7

	FlagLessOrEqual    = FlagLess | FlagEqual
	FlagGreaterOrEqual = FlagGreater | FlagEqual
)

// Depend is a (name, flag, version) triple describing a require, provide,
// conflict, or obsolete relationship.
//
// Invariant: Flag == FlagAny iff Version == "".
type Depend struct {
	Name    string
	Flag    DependFlag
	Version string
}

// NewDepend builds a Depend, normalizing Flag/Version per the invariant.
func NewDepend(name string, flag DependFlag, version string) Depend {
	if version == "" {
		flag = FlagAny
	}
	return Depend{Name: name, Flag: flag, Version: version}
}

// IsFileDepend reports whether d resolves against file lists rather than
// provide/require names — true for names that look like absolute paths.
func (d Depend) IsFileDepend() bool {
	return strings.HasPrefix(d.Name, "/")
}

// IsRPMLib reports whether d is one of the synthetic `rpmlib(...)`
// capability dependencies the resolver must ignore (§4.3.1).
func (d Depend) IsRPMLib() bool {
	return strings.HasPrefix(d.Name, "rpmlib(")
}

// Satisfies reports whether a provide-side Depend p (this) satisfies a
// require-side Depend req for the same name.
//
// Satisfies returns false when the names differ; otherwise it judges
// the version/flag relationship.
func (p Depend) Satisfies(req Depend) bool {
	if p.Name != req.Name {
		return false
	}
	if req.Flag == FlagAny || p.Flag == FlagAny {
		return true
	}
	pv := rpmversion.NewVersion(p.Version)
	rv := rpmversion.NewVersion(req.Version)
	cmp := pv.Compare(rv)

	reqOK := func(c int) bool {
		ok := false
		if req.Flag&FlagLess != 0 && c < 0 {
			ok = true
		}
		if req.Flag&FlagGreater != 0 && c > 0 {
			ok = true
		}
		if req.Flag&FlagEqual != 0 && c == 0 {
			ok = true
		}
		return ok
	}
	if !reqOK(cmp) {
		return false
	}
	if p.Flag == FlagEqual || p.Flag == FlagAny {
		return true
	}
	// The provide itself carries a version constraint (rare, but the
	// classic case is a versioned Provides:); require it be consistent
	// with the provide's own flag against the same comparison.
	provOK := false
	if p.Flag&FlagLess != 0 && cmp < 0 {
		provOK = true
	}
	if p.Flag&FlagGreater != 0 && cmp > 0 {
		provOK = true
	}
	if p.Flag&FlagEqual != 0 && cmp == 0 {
		provOK = true
	}
	return provOK
}

// matchScore ranks how precisely p matches req, for picking the "best"
// provide among several: equal beats a constrained range, which beats an
// unconstrained "any" provide.
func (p Depend) matchScore() int {
	switch {
	case p.Flag == FlagEqual:
		return 2
	case p.Flag != FlagAny:
		return 1
	default:
		return 0
	}
}

// bestDepend returns the highest-matchScore Depend among cands, or the
// zero Depend with ok=false if cands is empty.
func bestDepend(cands []Depend) (Depend, bool) {
	if len(cands) == 0 {
		return Depend{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.matchScore() > best.matchScore() {
			best = c
		}
	}
	return best, true
}
