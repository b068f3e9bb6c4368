// Package yumdb implements the filesystem key/value store of spec.md
// §4.7: one directory per installed package, one file per attribute,
// sharded by the package name's first character so no single directory
// ever holds more than a few thousand entries.
//
// The shape is grounded on the teacher's filesystem-backed layer cache
// (filerfs-style sharded-path construction) adapted from "digest
// prefix" sharding to "package name first letter" sharding, since
// yumdb has no content hash to shard on.
package yumdb

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
)

// Store is a directory-backed key/value store, one subdirectory per
// installed package.
type Store struct {
	Root string
}

// New returns a Store rooted at root. The root is created lazily by
// Set, not by New.
func New(root string) *Store { return &Store{Root: root} }

// shard returns "<root>/<first-letter>/<name>-<version>-<release>.<arch>".
func (s *Store) shard(pkg *zif.Package) string {
	name := pkg.Name
	first := "_"
	if len(name) > 0 {
		first = strings.ToLower(name[:1])
	}
	dir := name + "-" + pkg.Version + "-" + pkg.Release + "." + pkg.Arch
	return filepath.Join(s.Root, first, dir)
}

// Set writes value under key for pkg, creating the package's directory
// if necessary.
func (s *Store) Set(ctx context.Context, pkg *zif.Package, key string, value []byte) error {
	dir := s.shard(pkg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zif.NewStoreError("yumdb.Set", zif.ErrStoreFailed, "creating "+dir, err)
	}
	path := filepath.Join(dir, key)
	if err := os.WriteFile(path, value, 0o644); err != nil {
		return zif.NewStoreError("yumdb.Set", zif.ErrStoreFailed, "writing "+path, err)
	}
	zlog.Debug(ctx).Str("pkg", pkg.NEVRA()).Str("key", key).Msg("yumdb set")
	return nil
}

// Get reads the value stored under key for pkg.
func (s *Store) Get(ctx context.Context, pkg *zif.Package, key string) ([]byte, error) {
	path := filepath.Join(s.shard(pkg), key)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zif.NewStoreError("yumdb.Get", zif.ErrNotFound, key+" not set for "+pkg.NEVRA(), err)
		}
		return nil, zif.NewStoreError("yumdb.Get", zif.ErrStoreFailed, "reading "+path, err)
	}
	return b, nil
}

// Remove deletes the single key for pkg.
func (s *Store) Remove(ctx context.Context, pkg *zif.Package, key string) error {
	path := filepath.Join(s.shard(pkg), key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return zif.NewStoreError("yumdb.Remove", zif.ErrStoreFailed, "removing "+path, err)
	}
	return nil
}

// RemoveAll deletes every key recorded for pkg, removing its directory
// entirely.
func (s *Store) RemoveAll(ctx context.Context, pkg *zif.Package) error {
	dir := s.shard(pkg)
	if err := os.RemoveAll(dir); err != nil {
		return zif.NewStoreError("yumdb.RemoveAll", zif.ErrStoreFailed, "removing "+dir, err)
	}
	zlog.Debug(ctx).Str("pkg", pkg.NEVRA()).Msg("yumdb removed all keys")
	return nil
}

// GetKeys lists every key currently recorded for pkg, sorted.
func (s *Store) GetKeys(ctx context.Context, pkg *zif.Package) ([]string, error) {
	dir := s.shard(pkg)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zif.NewStoreError("yumdb.GetKeys", zif.ErrStoreFailed, "reading "+dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// pkgDirName parses "<name>-<version>-<release>.<arch>" back into a
// bare identity package, enough for callers that only need NEVRA
// fields to look up further keys.
func pkgDirName(name string) *zif.Package {
	dot := strings.LastIndex(name, ".")
	arch, rest := "", name
	if dot >= 0 {
		arch, rest = name[dot+1:], name[:dot]
	}
	parts := strings.Split(rest, "-")
	if len(parts) < 3 {
		return &zif.Package{Name: rest, Arch: arch}
	}
	release := parts[len(parts)-1]
	version := parts[len(parts)-2]
	pname := strings.Join(parts[:len(parts)-2], "-")
	return &zif.Package{Name: pname, Version: version, Release: release, Arch: arch}
}

// GetPackages lists every package directory currently recorded across
// every shard, used by history.Import to walk legacy installs.
func (s *Store) GetPackages(ctx context.Context) ([]*zif.Package, error) {
	shards, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zif.NewStoreError("yumdb.GetPackages", zif.ErrStoreFailed, "reading "+s.Root, err)
	}
	var out []*zif.Package
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		pkgDirs, err := os.ReadDir(filepath.Join(s.Root, shard.Name()))
		if err != nil {
			return nil, zif.NewStoreError("yumdb.GetPackages", zif.ErrStoreFailed, "reading shard "+shard.Name(), err)
		}
		for _, d := range pkgDirs {
			if !d.IsDir() {
				continue
			}
			out = append(out, pkgDirName(d.Name()))
		}
	}
	return out, nil
}
