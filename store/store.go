// Package store implements the Store contract of spec.md §4.2: a
// uniform query interface over a collection of packages, regardless of
// whether they're backed by the local RPM database, refreshed
// repository metadata, or an in-memory fixture.
//
// Store is variant-agnostic: callers never type-assert down to a
// concrete implementation (spec.md §9, "multiple inheritance of
// stores" design note). Base supplies default implementations of every
// search method in terms of a package list; concrete stores embed Base
// and override only the hooks they need.
package store

import (
	"context"
	"regexp"
	"strings"

	"github.com/hughsie/zif"
)

// ResolveFlags selects how Resolve interprets the names it's given.
type ResolveFlags uint16

const (
	FlagName ResolveFlags = 1 << iota
	FlagNameArch
	FlagNameVersion
	FlagNameVersionArch
	FlagRegex
	FlagGlob
	FlagPreferNative
)

// Store is the abstract collection of packages every concrete backend
// implements.
type Store interface {
	// Load is idempotent; the first call populates the in-memory
	// package list, later calls are no-ops until Unload resets it.
	Load(ctx context.Context) error
	// Unload resets the single-shot Load bit.
	Unload()

	// ID names the store, used as the RepoID stamped onto the packages
	// it returns.
	ID() string

	Resolve(ctx context.Context, names []string, flags ResolveFlags) ([]*zif.Package, error)
	FindPackage(ctx context.Context, identity Identity) (*zif.Package, bool)

	WhatProvides(ctx context.Context, deps []zif.Depend) ([]*zif.Package, error)
	WhatRequires(ctx context.Context, deps []zif.Depend) ([]*zif.Package, error)
	WhatConflicts(ctx context.Context, deps []zif.Depend) ([]*zif.Package, error)
	WhatObsoletes(ctx context.Context, deps []zif.Depend) ([]*zif.Package, error)

	GetPackages(ctx context.Context) ([]*zif.Package, error)
	GetCategories(ctx context.Context) ([]string, error)

	SearchName(ctx context.Context, terms []string) ([]*zif.Package, error)
	SearchDetails(ctx context.Context, terms []string) ([]*zif.Package, error)
	SearchCategory(ctx context.Context, terms []string) ([]*zif.Package, error)
	SearchGroup(ctx context.Context, terms []string) ([]*zif.Package, error)
	SearchFile(ctx context.Context, terms []string) ([]*zif.Package, error)
}

// Identity is the (name, epoch, version, release, arch) tuple used by
// FindPackage's O(1) lookup, per spec.md §3's package_id_hash.
type Identity struct {
	Name, Version, Release, Arch string
	Epoch                        uint
}

// IdentityOf builds the Identity for p.
func IdentityOf(p *zif.Package) Identity {
	return Identity{Name: p.Name, Epoch: p.Epoch, Version: p.Version, Release: p.Release, Arch: p.Arch}
}

// Base implements every Store search method in terms of a package
// slice and an identity index, so concrete stores only need to
// populate Packages (typically from Load) and override Loader-specific
// hooks. This is the "trait with default implementations" design note
// from spec.md §9.
type Base struct {
	id       string
	loaded   bool
	Packages []*zif.Package
	byID     map[Identity]*zif.Package
}

// NewBase constructs a Base identified by id.
func NewBase(id string) *Base {
	return &Base{id: id}
}

func (b *Base) ID() string { return b.id }

// MarkLoaded records that Load succeeded and indexes Packages by
// identity; concrete stores call this at the end of their Load hook.
func (b *Base) MarkLoaded(pkgs []*zif.Package) {
	b.Packages = pkgs
	b.byID = make(map[Identity]*zif.Package, len(pkgs))
	for _, p := range pkgs {
		b.byID[IdentityOf(p)] = p
	}
	b.loaded = true
}

// Loaded reports whether MarkLoaded has been called since the last
// Unload.
func (b *Base) Loaded() bool { return b.loaded }

// Unload resets the single-shot load bit.
func (b *Base) Unload() {
	b.loaded = false
	b.Packages = nil
	b.byID = nil
}

func (b *Base) FindPackage(_ context.Context, id Identity) (*zif.Package, bool) {
	p, ok := b.byID[id]
	return p, ok
}

func (b *Base) GetPackages(_ context.Context) ([]*zif.Package, error) {
	return b.Packages, nil
}

func (b *Base) GetCategories(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range b.Packages {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out, nil
}

// Resolve implements the default name-matching behavior described in
// spec.md §4.2, including the prefer-native two-pass search.
func (b *Base) Resolve(_ context.Context, names []string, flags ResolveFlags, nativeArch string) ([]*zif.Package, error) {
	if flags&FlagPreferNative != 0 {
		suffixed := make([]string, len(names))
		for i, n := range names {
			suffixed[i] = n + "." + nativeArch
		}
		if out := b.resolveNames(suffixed, flags|FlagNameArch); len(out) > 0 {
			return out, nil
		}
	}
	out := b.resolveNames(names, flags)
	if len(out) == 0 {
		return nil, zif.NewStoreError("Store.Resolve", zif.ErrEmptyArray, "no packages matched", nil)
	}
	return out, nil
}

func (b *Base) resolveNames(names []string, flags ResolveFlags) []*zif.Package {
	var out []*zif.Package
	for _, n := range names {
		switch {
		case flags&FlagRegex != 0:
			re, err := regexp.Compile(n)
			if err != nil {
				continue
			}
			for _, p := range b.Packages {
				if re.MatchString(p.Name) {
					out = append(out, p)
				}
			}
		case flags&FlagGlob != 0:
			for _, p := range b.Packages {
				if ok, _ := globMatch(n, p.Name); ok {
					out = append(out, p)
				}
			}
		case flags&FlagNameArch != 0:
			name, arch, ok := splitLast(n, '.')
			for _, p := range b.Packages {
				if p.Name == name && (!ok || p.Arch == arch) {
					out = append(out, p)
				}
			}
		default:
			for _, p := range b.Packages {
				if p.Name == n {
					out = append(out, p)
				}
			}
		}
	}
	return out
}

func splitLast(s string, sep byte) (string, string, bool) {
	i := strings.LastIndexByte(s, sep)
	if i == -1 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}

func globMatch(pattern, name string) (bool, error) {
	re := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	re = strings.ReplaceAll(re, `\?`, ".")
	return regexp.MatchString(re, name)
}

func dependMatch(list []*zif.Package, deps []zif.Depend, pick func(*zif.Package, zif.Depend) (zif.Depend, bool)) []*zif.Package {
	seen := map[Identity]bool{}
	var out []*zif.Package
	for _, p := range list {
		for _, d := range deps {
			if _, ok := pick(p, d); ok {
				id := IdentityOf(p)
				if !seen[id] {
					seen[id] = true
					out = append(out, p)
				}
				break
			}
		}
	}
	return out
}

func (b *Base) WhatProvides(_ context.Context, deps []zif.Depend) ([]*zif.Package, error) {
	return dependMatch(b.Packages, deps, (*zif.Package).ProvidesDepend), nil
}

func (b *Base) WhatRequires(_ context.Context, deps []zif.Depend) ([]*zif.Package, error) {
	return dependMatch(b.Packages, deps, (*zif.Package).RequiresDepend), nil
}

func (b *Base) WhatConflicts(_ context.Context, deps []zif.Depend) ([]*zif.Package, error) {
	return dependMatch(b.Packages, deps, (*zif.Package).ConflictsDepend), nil
}

func (b *Base) WhatObsoletes(_ context.Context, deps []zif.Depend) ([]*zif.Package, error) {
	return dependMatch(b.Packages, deps, (*zif.Package).ObsoletesDepend), nil
}

func (b *Base) searchTerms(terms []string, match func(*zif.Package, string) bool) []*zif.Package {
	seen := map[Identity]bool{}
	var out []*zif.Package
	for _, p := range b.Packages {
		for _, t := range terms {
			if match(p, t) {
				id := IdentityOf(p)
				if !seen[id] {
					seen[id] = true
					out = append(out, p)
				}
				break
			}
		}
	}
	return out
}

func (b *Base) SearchName(_ context.Context, terms []string) ([]*zif.Package, error) {
	return b.searchTerms(terms, func(p *zif.Package, t string) bool { return strings.Contains(p.Name, t) }), nil
}

func (b *Base) SearchDetails(_ context.Context, terms []string) ([]*zif.Package, error) {
	return b.searchTerms(terms, func(p *zif.Package, t string) bool {
		return strings.Contains(p.Name, t) || strings.Contains(p.Summary, t) || strings.Contains(p.Description, t)
	}), nil
}

func (b *Base) SearchCategory(_ context.Context, terms []string) ([]*zif.Package, error) {
	return b.searchTerms(terms, func(p *zif.Package, t string) bool { return p.Category == t }), nil
}

func (b *Base) SearchGroup(_ context.Context, terms []string) ([]*zif.Package, error) {
	return b.searchTerms(terms, func(p *zif.Package, t string) bool { return p.Group == t }), nil
}

func (b *Base) SearchFile(_ context.Context, terms []string) ([]*zif.Package, error) {
	return b.searchTerms(terms, func(p *zif.Package, t string) bool {
		for _, f := range p.Files {
			if f == t {
				return true
			}
		}
		return false
	}), nil
}
