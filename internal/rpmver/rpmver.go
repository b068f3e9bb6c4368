// Package rpmver parses and compares RPM NEVRA-family identity strings.
//
// Parsing is done in pure Go: splitting a NEVRA string into its fields is
// plain string manipulation with no ordering semantics of its own. The
// actual version ordering (the tilde/caret/segment rules RPM uses) is
// delegated to [go-rpm-version], which implements the algorithm the rest
// of the ecosystem already relies on rather than re-deriving it here.
//
// [go-rpm-version]: https://github.com/knqyf263/go-rpm-version
package rpmver

import (
	"fmt"
	"strings"

	rpmversion "github.com/knqyf263/go-rpm-version"
)

// Version is a type for representing NEVRA, NEVR, EVR, and EVRA strings.
//
// The stringified version is normalized into a minimal EVR string, with "name" and
// "architecture" added as available. The [Version.EVR] method provides for
// getting only the EVR string.
type Version struct {
	Name         *string
	Architecture *string
	Epoch        string
	Version      string
	Release      string

	// Distro is a synthetic element compared before the EVR when the
	// comparison mode calls for distribution-version ordering. It is
	// empty in plain version-comparison mode.
	Distro string
}

// Evr writes the formatted EVR string into "b".
func (v *Version) evr(b *strings.Builder) {
	if v.Epoch != "0" && v.Epoch != "" {
		b.WriteString(v.Epoch)
		b.WriteByte(':')
	}
	b.WriteString(v.Version)
	b.WriteByte('-')
	b.WriteString(v.Release)
}

// String implements [fmt.Stringer].
func (v *Version) String() string {
	var b strings.Builder
	if v.Name != nil {
		b.WriteString(*v.Name)
		b.WriteByte('-')
	}
	v.evr(&b)
	if v.Architecture != nil {
		b.WriteByte('.')
		b.WriteString(*v.Architecture)
	}
	return b.String()
}

// EVR returns a formatted EVR string.
func (v *Version) EVR() string {
	var b strings.Builder
	v.evr(&b)
	return b.String()
}

// IsZero reports true if the receiver is a zero-valued [Version].
func (v *Version) IsZero() bool {
	return v.Name == nil && v.Architecture == nil && v.Epoch == "" && v.Version == "" && v.Release == ""
}

// Parse returns a Version for the provided NEVRA-family string, or an
// error if it's malformed.
func Parse(v string) (Version, error) {
	ret := Version{Epoch: "0"}
	switch strings.Count(v, "-") {
	case 0:
		return Version{}, fmt.Errorf("rpmver: %s: missing separators", v)
	case 1:
		// `version-release(.arch)`
	default:
		// `some-name-version-release(.arch)`
		i := strings.LastIndexByte(v, '-')
		i = strings.LastIndexByte(v[:i], '-')
		name := v[:i]
		ret.Name = &name
		v = v[i+1:]
	}
	ev, ra, _ := strings.Cut(v, "-")

	ret.Version = ev
	if e, ver, ok := strings.Cut(ev, ":"); ok {
		if e != "" {
			ret.Epoch = e
		}
		ret.Version = ver
	}

	ret.Release = ra
	if idx := strings.LastIndexByte(ra, '.'); idx != -1 {
		a := ra[idx:]
		if _, ok := architectures[a]; ok {
			arch := a[1:]
			ret.Architecture = &arch
			ret.Release = ra[:idx]
		}
	}

	return ret, nil
}

// Architectures is known architecture strings.
//
// We need to just know these, as there's no good way to know what's an arch tag
// and what's just another version segment.
var architectures = map[string]struct{}{
	".aarch64": {},
	".i386":    {},
	".i486":    {},
	".i586":    {},
	".i686":    {},
	".noarch":  {},
	".ppc64le": {},
	".riscv":   {},
	".s390x":   {},
	".src":     {},
	".x86_64":  {},
}

// Compare orders two Versions.
//
// If either carries a non-empty Distro and the two differ, the
// distribution element alone decides the order (distro-compare mode,
// see [spec §4.1]). Otherwise ordering falls back to the name, then to
// epoch-version-release comparison, then to architecture as a final
// tiebreak.
func Compare(a, b *Version) int {
	if a.Distro != "" || b.Distro != "" {
		if c := rpmversion.NewVersion(a.Distro).Compare(rpmversion.NewVersion(b.Distro)); c != 0 {
			return c
		}
	}
	if c := comparePtr(a.Name, b.Name); c != 0 {
		return c
	}
	if c := rpmversion.NewVersion(a.EVR()).Compare(rpmversion.NewVersion(b.EVR())); c != 0 {
		return c
	}
	return comparePtr(a.Architecture, b.Architecture)
}

// comparePtr treats a missing pointer as sorting before a present one, the
// way a missing architecture compares as "more specific wins."
func comparePtr(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a != nil && b == nil:
		return 1
	case a == nil && b != nil:
		return -1
	case *a == *b:
		return 0
	case *a < *b:
		return -1
	default:
		return 1
	}
}
