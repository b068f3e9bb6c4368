// Package pkgutil implements the Package-array filtering utilities of
// spec.md §2 ("Package array utilities"): picking newest-per-name,
// best-arch, deduplicating, and filtering by dependency satisfiability.
//
// These are plain slice transforms grounded on the same dedup-by-key
// shape the teacher uses for layer reduction (indexer/controller's
// reduce.go) and coalescing (indexer/controller/coalesce.go), adapted
// from "dedup layers by scan state" to "dedup packages by name/arch".
package pkgutil

import (
	"github.com/hughsie/zif"
)

// Newest filters pkgs down to, for each distinct name, only the
// highest-Compare package under mode.
func Newest(pkgs []*zif.Package, mode zif.CompareMode) []*zif.Package {
	best := make(map[string]*zif.Package)
	order := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		cur, ok := best[p.Name]
		if !ok {
			order = append(order, p.Name)
			best[p.Name] = p
			continue
		}
		if zif.Compare(p, cur, mode) > 0 {
			best[p.Name] = p
		}
	}
	out := make([]*zif.Package, 0, len(order))
	for _, n := range order {
		out = append(out, best[n])
	}
	return out
}

// Oldest is the dual of Newest: for each distinct name, the
// lowest-Compare package.
func Oldest(pkgs []*zif.Package, mode zif.CompareMode) []*zif.Package {
	best := make(map[string]*zif.Package)
	order := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		cur, ok := best[p.Name]
		if !ok {
			order = append(order, p.Name)
			best[p.Name] = p
			continue
		}
		if zif.Compare(p, cur, mode) < 0 {
			best[p.Name] = p
		}
	}
	out := make([]*zif.Package, 0, len(order))
	for _, n := range order {
		out = append(out, best[n])
	}
	return out
}

// BestArch filters pkgs down to, for each distinct name, only packages
// at the most-preferred architecture available (native over noarch over
// any other arch).
func BestArch(pkgs []*zif.Package, nativeArch string) []*zif.Package {
	bestRank := make(map[string]int)
	for _, p := range pkgs {
		r := archRank(p.Arch, nativeArch)
		if cur, ok := bestRank[p.Name]; !ok || r > cur {
			bestRank[p.Name] = r
		}
	}
	out := make([]*zif.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if archRank(p.Arch, nativeArch) == bestRank[p.Name] {
			out = append(out, p)
		}
	}
	return out
}

func archRank(arch, native string) int {
	switch {
	case arch == native:
		return 2
	case arch == "noarch":
		return 1
	default:
		return 0
	}
}

// Dedup removes duplicate (name, epoch, version, release, arch)
// packages, keeping the first occurrence.
func Dedup(pkgs []*zif.Package) []*zif.Package {
	type id struct {
		name, version, release, arch string
		epoch                        uint
	}
	seen := make(map[id]bool, len(pkgs))
	out := make([]*zif.Package, 0, len(pkgs))
	for _, p := range pkgs {
		k := id{p.Name, p.Version, p.Release, p.Arch, p.Epoch}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}

// Satisfying filters pkgs down to those that provide dep.
func Satisfying(pkgs []*zif.Package, dep zif.Depend) []*zif.Package {
	out := make([]*zif.Package, 0)
	for _, p := range pkgs {
		if _, ok := p.ProvidesDepend(dep); ok {
			out = append(out, p)
		}
	}
	return out
}

// ByName groups pkgs by Name. The map has no order of names; each
// group keeps the input order of its packages.
func ByName(pkgs []*zif.Package) map[string][]*zif.Package {
	out := make(map[string][]*zif.Package)
	for _, p := range pkgs {
		out[p.Name] = append(out[p.Name], p)
	}
	return out
}
