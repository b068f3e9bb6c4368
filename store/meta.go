package store

import (
	"context"

	"github.com/hughsie/zif"
)

// MetaStore is an in-memory Store, built up directly rather than
// refreshed from a backend. It's the vehicle the manifest runner uses
// to construct virtual installed/remote worlds for tests (spec.md §9).
type MetaStore struct {
	*Base
	NativeArch string
}

var _ Store = (*MetaStore)(nil)

// NewMetaStore constructs an empty, already-loaded MetaStore.
func NewMetaStore(id, nativeArch string) *MetaStore {
	m := &MetaStore{Base: NewBase(id), NativeArch: nativeArch}
	m.MarkLoaded(nil)
	return m
}

// Add appends p to the store's package list and re-indexes it. Safe to
// call repeatedly; MetaStore has no refresh policy to worry about.
func (m *MetaStore) Add(p *zif.Package) {
	m.Packages = append(m.Packages, p)
	m.MarkLoaded(m.Packages)
}

// Remove deletes the package matching id, if present, and re-indexes.
func (m *MetaStore) Remove(id Identity) {
	out := m.Packages[:0:0]
	for _, p := range m.Packages {
		if IdentityOf(p) != id {
			out = append(out, p)
		}
	}
	m.MarkLoaded(out)
}

func (m *MetaStore) Load(_ context.Context) error { return nil }

func (m *MetaStore) Resolve(ctx context.Context, names []string, flags ResolveFlags) ([]*zif.Package, error) {
	return m.Base.Resolve(ctx, names, flags, m.NativeArch)
}
