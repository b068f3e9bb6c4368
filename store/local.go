package store

import (
	"context"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
)

// RPMDatabaseReader is the external collaborator that enumerates and
// decodes the installed-package database rooted at a prefix (spec.md
// §1, "RPM database reader proper" — out of scope here; consumed
// through this interface).
type RPMDatabaseReader interface {
	// ReadInstalled returns every package recorded as installed under
	// prefix.
	ReadInstalled(ctx context.Context, prefix string) ([]*zif.Package, error)
}

// LocalStore is backed by the RPM database rooted at Prefix.
type LocalStore struct {
	*Base
	Prefix   string
	Reader   RPMDatabaseReader
	NativeArch string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore constructs a LocalStore over the RPM database at prefix.
func NewLocalStore(prefix string, reader RPMDatabaseReader, nativeArch string) *LocalStore {
	return &LocalStore{Base: NewBase("installed"), Prefix: prefix, Reader: reader, NativeArch: nativeArch}
}

func (s *LocalStore) Load(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	ctx = zlog.ContextWithValues(ctx, "component", "store/LocalStore.Load", "prefix", s.Prefix)
	pkgs, err := s.Reader.ReadInstalled(ctx, s.Prefix)
	if err != nil {
		return zif.NewStoreError("LocalStore.Load", zif.ErrStoreFailed, "reading installed database", err)
	}
	for _, p := range pkgs {
		p.Origin = zif.OriginInstalled
	}
	zlog.Debug(ctx).Int("count", len(pkgs)).Msg("loaded installed packages")
	s.MarkLoaded(pkgs)
	return nil
}

func (s *LocalStore) Resolve(ctx context.Context, names []string, flags ResolveFlags) ([]*zif.Package, error) {
	return s.Base.Resolve(ctx, names, flags, s.NativeArch)
}
