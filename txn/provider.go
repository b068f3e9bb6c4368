package txn

import "github.com/hughsie/zif"

// installedLookup resolves the currently-projected installed packages
// sharing a candidate's name, used by score to weigh
// already-installed/upgrade/downgrade signals per candidate.
type installedLookup func(name string) []*zif.Package

// score implements the best-provider weighted-signal table of
// spec.md §4.3.5.
func score(candidate, requirer *zif.Package, installed installedLookup, dep zif.Depend, nativeArch string) int {
	s := 0

	for _, inst := range installed(candidate.Name) {
		if cmp, ok := zif.CompareFull(candidate, inst, zif.CompareVersion, true); ok {
			switch {
			case cmp == 0:
				s += 1000
			case cmp > 0:
				s += 5
			case cmp < 0:
				s -= 1024
			}
		}
	}

	if requirer != nil {
		s += 2 * sharedPrefixLen(candidate.Name, requirer.Name)
		if requirer.Arch != "" && candidate.Arch != requirer.Arch {
			s -= 300
		}
		if requirer.SourceRPM != "" && candidate.SourceRPM == requirer.SourceRPM {
			s += 20
		}
	}

	if dep.Flag != zif.FlagAny {
		s += 500
	}

	if nativeArch != "" && candidate.Arch != nativeArch && candidate.Arch != "noarch" {
		s -= 80
	}

	s -= len(candidate.Name)
	// The i386-family arch weight only applies on an i386-family machine.
	if zif.ArchWeight(nativeArch) > 0 {
		s += zif.ArchWeight(candidate.Arch)
	}

	return s
}

func sharedPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// best picks the highest-scoring candidate, filtering to native arch
// first when exactArch is set. Ties are broken by newest (spec.md
// §4.3.5, "ties broken by newest").
func best(candidates []*zif.Package, requirer *zif.Package, installed installedLookup, dep zif.Depend, nativeArch string, exactArch bool) (*zif.Package, bool) {
	pool := candidates
	if exactArch {
		filtered := make([]*zif.Package, 0, len(candidates))
		for _, c := range candidates {
			if c.Arch == nativeArch || c.Arch == "noarch" {
				filtered = append(filtered, c)
			}
		}
		pool = filtered
	}
	if len(pool) == 0 {
		return nil, false
	}
	bestPkg := pool[0]
	bestScore := score(bestPkg, requirer, installed, dep, nativeArch)
	for _, c := range pool[1:] {
		cs := score(c, requirer, installed, dep, nativeArch)
		switch {
		case cs > bestScore:
			bestPkg, bestScore = c, cs
		case cs == bestScore && zif.Compare(c, bestPkg, zif.CompareVersion) > 0:
			bestPkg, bestScore = c, cs
		}
	}
	return bestPkg, true
}
