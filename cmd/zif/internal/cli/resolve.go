package cli

import (
	"strings"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/internal/rpmver"
)

// splitNEVRA attempts to parse arg as a NEVR(A) string via rpmver.Parse
// (e.g. "foo-1.0-1.x86_64" or "foo-1.0-1"), splitting it into a bare
// name to search on plus the version/release/arch constraint the
// candidate must match. ok is false for a plain bare name like "foo"
// (no version component), which resolves by name match alone.
//
// rpmver.Parse requires at least one "-" and treats the text before
// the final two dash-separated fields as the name, so a bare name can
// only be mistaken for a NEVRA if it happens to contain two dashes of
// its own; requiring the parse to additionally report a Name element
// keeps single-dash-or-less package names (almost every real package)
// resolving exactly as before.
func splitNEVRA(arg string) (name string, constraint rpmver.Version, ok bool) {
	if strings.Count(arg, "-") < 2 {
		return arg, rpmver.Version{}, false
	}
	parsed, err := rpmver.Parse(arg)
	if err != nil || parsed.Name == nil {
		return arg, rpmver.Version{}, false
	}
	return *parsed.Name, parsed, true
}

// matchesNEVRA reports whether p satisfies the version/release/arch
// constraint parsed out of a NEVRA command-line argument. Epoch is not
// part of the command-line NEVRA grammar, so it's left unconstrained.
func matchesNEVRA(p *zif.Package, constraint rpmver.Version) bool {
	if p.Version != constraint.Version || p.Release != constraint.Release {
		return false
	}
	if constraint.Architecture != nil && p.Arch != *constraint.Architecture {
		return false
	}
	return true
}

// filterNEVRA narrows candidates to those matching constraint,
// in place.
func filterNEVRA(candidates []*zif.Package, constraint rpmver.Version) []*zif.Package {
	out := candidates[:0]
	for _, p := range candidates {
		if matchesNEVRA(p, constraint) {
			out = append(out, p)
		}
	}
	return out
}
