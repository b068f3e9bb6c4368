package store

import (
	"context"
	"time"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
)

// MetadataParser is the external collaborator that refreshes and parses
// a repository's primary.xml/filelists metadata (spec.md §1, out of
// scope here; consumed through this interface).
type MetadataParser interface {
	// Refresh fetches and parses metadata for repoID, returning its
	// packages.
	Refresh(ctx context.Context, repoID string) ([]*zif.Package, error)
}

// RemoteStore is backed by a repository's refreshed metadata.
type RemoteStore struct {
	*Base
	RepoID        string
	Parser        MetadataParser
	NativeArch    string
	MetadataExpiry time.Duration
	lastRefresh   time.Time
}

var _ Store = (*RemoteStore)(nil)

// maxMetadataExpiry caps metadata staleness at 24h regardless of config,
// per spec.md §5 ("Metadata expiry is capped at 24 h for update queries
// regardless of config").
const maxMetadataExpiry = 24 * time.Hour

// NewRemoteStore constructs a RemoteStore for repoID.
func NewRemoteStore(repoID string, parser MetadataParser, nativeArch string, expiry time.Duration) *RemoteStore {
	if expiry <= 0 || expiry > maxMetadataExpiry {
		expiry = maxMetadataExpiry
	}
	return &RemoteStore{Base: NewBase(repoID), RepoID: repoID, Parser: parser, NativeArch: nativeArch, MetadataExpiry: expiry}
}

func (s *RemoteStore) Load(ctx context.Context) error {
	if s.Loaded() && time.Since(s.lastRefresh) < s.MetadataExpiry {
		return nil
	}
	ctx = zlog.ContextWithValues(ctx, "component", "store/RemoteStore.Load", "repo", s.RepoID)
	pkgs, err := s.Parser.Refresh(ctx, s.RepoID)
	if err != nil {
		return zif.NewStoreError("RemoteStore.Load", zif.ErrStoreFailed, "refreshing metadata for "+s.RepoID, err)
	}
	for _, p := range pkgs {
		p.Origin = zif.OriginRemote
		p.RepoID = s.RepoID
	}
	zlog.Debug(ctx).Int("count", len(pkgs)).Msg("loaded remote packages")
	s.MarkLoaded(pkgs)
	s.lastRefresh = time.Now()
	return nil
}

func (s *RemoteStore) Resolve(ctx context.Context, names []string, flags ResolveFlags) ([]*zif.Package, error) {
	return s.Base.Resolve(ctx, names, flags, s.NativeArch)
}
