package zif

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hughsie/zif/internal/rpmver"
)

// Origin discriminates where a Package came from.
type Origin uint8

const (
	OriginUnknown Origin = iota
	OriginInstalled
	OriginRemote
	OriginLocalFile
	OriginMeta
)

func (o Origin) String() string {
	switch o {
	case OriginInstalled:
		return "installed"
	case OriginRemote:
		return "remote"
	case OriginLocalFile:
		return "local-file"
	case OriginMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// TrustKind is a package's verified-signature state.
type TrustKind uint8

const (
	TrustUnknown TrustKind = iota
	TrustNone
	TrustPubkey
)

// CompareMode selects the version ordering rule [Package.Compare] applies.
type CompareMode uint8

const (
	CompareVersion CompareMode = iota
	CompareDistro
)

// Package is the identity and lazily-populated attribute set for an RPM
// package, whether installed, available from a repository, a local file,
// or an in-memory fixture.
//
// Identity — Name, Epoch, Version, Release, Arch, Origin — is immutable
// after construction. Attribute fields (Summary, Description, ...) are
// populated lazily through Ensure and, once set to a non-zero value,
// may not be overwritten with a different value (the dirty-bit
// invariant from spec.md §3).
type Package struct {
	Name    string
	Epoch   uint
	Version string
	Release string
	Arch    string
	Origin  Origin
	// RepoID names the repository this package is available from, when
	// Origin == OriginRemote. Empty otherwise.
	RepoID string

	Summary     string
	Description string
	License     string
	URL         string
	Size        uint64
	Category    string
	Group       string

	Files       []string
	Requires    []Depend
	Provides    []Depend
	Conflicts   []Depend
	Obsoletes   []Depend

	SourceRPM     string
	CacheFilename string
	PkgID         string

	// Header is an opaque handle to the package's RPM header, populated
	// for locally-available packages. It is consumed only by the commit
	// package, which knows how to read it through the RPMEngine
	// interface (spec.md §6) — the core never interprets it itself.
	Header any

	SignatureKeyID string
	Trust          TrustKind

	ensured    map[string]bool
	dirty      map[string]bool
}

// Ensurer is the per-class lazy-attribute loader a concrete Store
// implementation supplies. Calling Ensure with a class name ("files",
// "requires", ...) triggers the loader at most once per class.
type Ensurer interface {
	Ensure(p *Package, class string) error
}

// Ensure upgrades p's given attribute class using loader, the first time
// it's requested. Subsequent calls for the same class are no-ops.
func (p *Package) Ensure(loader Ensurer, class string) error {
	if p.ensured == nil {
		p.ensured = make(map[string]bool)
	}
	if p.ensured[class] {
		return nil
	}
	if err := loader.Ensure(p, class); err != nil {
		return err
	}
	p.ensured[class] = true
	return nil
}

// ValidateFileIndex checks that a decoded RPM header's file-index array
// (one dirname-table index per file) lines up with its basenames array
// (one entry per file) before an Ensurer joins them into p.Files.
//
// spec.md §9 Open Questions: the original source's equivalent check
// (zif_package_local_ensure_data) compares fileindex->len against
// itself, which is always true and so never actually validates
// anything. The intended check is that the two arrays describe the
// same number of files; this implements that intended check instead of
// the unreachable original.
func ValidateFileIndex(fileindex, basenames []string) error {
	if len(fileindex) != len(basenames) {
		return NewPackageError("Package.ValidateFileIndex", ErrPackageFailed,
			fmt.Sprintf("fileindex has %d entries, basenames has %d", len(fileindex), len(basenames)), nil)
	}
	return nil
}

// SetAttr assigns a string-valued attribute field by name, enforcing the
// dirty-bit invariant: a second write with a different value fails.
func (p *Package) SetAttr(name, value string) error {
	if p.dirty == nil {
		p.dirty = make(map[string]bool)
	}
	cur, ok := p.attr(name)
	if ok && p.dirty[name] && cur != value {
		return NewPackageError("Package.SetAttr", ErrPackageFailed,
			fmt.Sprintf("attribute %q already set to %q, refusing to overwrite with %q", name, cur, value), nil)
	}
	p.setAttr(name, value)
	p.dirty[name] = true
	return nil
}

func (p *Package) attr(name string) (string, bool) {
	switch name {
	case "summary":
		return p.Summary, p.Summary != ""
	case "description":
		return p.Description, p.Description != ""
	case "license":
		return p.License, p.License != ""
	case "url":
		return p.URL, p.URL != ""
	case "category":
		return p.Category, p.Category != ""
	case "group":
		return p.Group, p.Group != ""
	default:
		return "", false
	}
}

func (p *Package) setAttr(name, value string) {
	switch name {
	case "summary":
		p.Summary = value
	case "description":
		p.Description = value
	case "license":
		p.License = value
	case "url":
		p.URL = value
	case "category":
		p.Category = value
	case "group":
		p.Group = value
	}
}

// NEVRA returns the name-epoch-version-release-arch string identifying p.
func (p *Package) NEVRA() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte('-')
	if p.Epoch != 0 {
		b.WriteString(strconv.FormatUint(uint64(p.Epoch), 10))
		b.WriteByte(':')
	}
	b.WriteString(p.Version)
	b.WriteByte('-')
	b.WriteString(p.Release)
	b.WriteByte('.')
	b.WriteString(p.Arch)
	return b.String()
}

// evr renders p's epoch:version-release string for comparison purposes.
func (p *Package) evr() rpmver.Version {
	return rpmver.Version{
		Epoch:   strconv.FormatUint(uint64(p.Epoch), 10),
		Version: p.Version,
		Release: p.Release,
	}
}

// Compare orders a and b by (epoch, version, release) under mode. In
// CompareDistro mode a synthetic distribution element (distroVersion)
// takes precedence over the rest of the comparison (spec.md §4.1).
func Compare(a, b *Package, mode CompareMode) int {
	av, bv := a.evr(), b.evr()
	if mode == CompareDistro {
		av.Distro, bv.Distro = a.distroVersion(), b.distroVersion()
	}
	return rpmver.Compare(&av, &bv)
}

// distroVersion is the synthetic element CompareDistro mode compares
// first. zif has no separate "distribution epoch" tag of its own, so it
// is derived from the release field's trailing ".elNN"/".fcNN" tag when
// present, falling back to the empty string (which sorts no differently
// than a plain version compare).
func (p *Package) distroVersion() string {
	rel := p.Release
	for i := len(rel) - 1; i >= 0; i-- {
		if rel[i] == '.' {
			tag := rel[i+1:]
			j := 0
			for j < len(tag) && (tag[j] < '0' || tag[j] > '9') {
				j++
			}
			if j > 0 && j < len(tag) {
				return tag[j:]
			}
		}
	}
	return ""
}

// CompareFull additionally requires name equality (and, if
// requireSameArch, arch equality) before falling back to Compare.
func CompareFull(a, b *Package, mode CompareMode, requireSameArch bool) (int, bool) {
	if a.Name != b.Name {
		return 0, false
	}
	if requireSameArch && a.Arch != b.Arch {
		return 0, false
	}
	return Compare(a, b, mode), true
}

// providesLike scans list for the best-matching Depend against req.
func providesLike(list []Depend, req Depend) (Depend, bool) {
	var cands []Depend
	for _, d := range list {
		if d.Name == req.Name && (req.Flag == FlagAny || d.Satisfies(req) || req.Satisfies(d)) {
			cands = append(cands, d)
		}
	}
	return bestDepend(cands)
}

// ProvidesDepend returns the best-matching provide of p against req,
// including the implicit self-provide every RPM package carries even
// when it lists no explicit "Provides: name = version" of itself
// (RPM header convention: a package always provides its own NEVR).
func (p *Package) ProvidesDepend(req Depend) (Depend, bool) {
	if req.Name == p.Name {
		withSelf := make([]Depend, len(p.Provides), len(p.Provides)+1)
		copy(withSelf, p.Provides)
		withSelf = append(withSelf, p.selfProvide())
		return providesLike(withSelf, req)
	}
	return providesLike(p.Provides, req)
}

// selfProvide is the implicit "Name = Version" a package provides by
// virtue of its own identity.
func (p *Package) selfProvide() Depend {
	return NewDepend(p.Name, FlagEqual, p.Version)
}

// RequiresDepend returns the best-matching require of p against req.
func (p *Package) RequiresDepend(req Depend) (Depend, bool) { return providesLike(p.Requires, req) }

// ConflictsDepend returns the best-matching conflict of p against req.
func (p *Package) ConflictsDepend(req Depend) (Depend, bool) { return providesLike(p.Conflicts, req) }

// ObsoletesDepend returns the best-matching obsolete of p against req.
func (p *Package) ObsoletesDepend(req Depend) (Depend, bool) { return providesLike(p.Obsoletes, req) }

// archFamily groups architecture strings that are mutually installable.
var archFamily = map[string]string{
	"noarch": "noarch",
	"i386":   "x86-32", "i486": "x86-32", "i586": "x86-32", "i686": "x86-32",
	"x86_64": "x86-64",
}

// IsCompatibleArch reports whether p and other may coexist/substitute per
// spec.md §4.1: noarch is compatible with everything, the i386-i686
// family is mutually compatible, and x86_64 is only compatible with
// x86_64 and noarch.
func (p *Package) IsCompatibleArch(other *Package) bool {
	return archCompatible(p.Arch, other.Arch)
}

func archCompatible(a, b string) bool {
	if a == "noarch" || b == "noarch" {
		return true
	}
	fa, oka := archFamily[a]
	fb, okb := archFamily[b]
	if !oka || !okb {
		return a == b
	}
	return fa == fb
}

// ArchWeight scores arch preference for best-provider selection (§4.3.5):
// for a four-character "iN86" arch it returns atoi(arch+1)/100 (6 for
// i686), else 0. Best-provider scoring adds it only when the machine
// arch itself has a non-zero weight, i.e. on an i386-family machine.
func ArchWeight(arch string) int { return archWeight(arch) }

func archWeight(arch string) int {
	if len(arch) == 4 && arch[0] == 'i' {
		if n, err := strconv.Atoi(arch[1:]); err == nil {
			return n / 100
		}
	}
	return 0
}
