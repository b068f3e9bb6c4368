package cli

import (
	"context"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/commit"
	"github.com/hughsie/zif/progress"
	"github.com/hughsie/zif/txn"
)

// noopDownloader and noopKeyring stand in for the download engine and
// RPM keyring spec.md §6 lists as external collaborators. Prepare hands
// them every remote package it installs: Download fetches nothing and
// Lookup reports every package as TrustPubkey. A production zif binary
// links real implementations of txn.Downloader/txn.Keyring against
// libcurl and the RPM keyring instead.
type noopDownloader struct{}

var _ txn.Downloader = noopDownloader{}

func (noopDownloader) Download(ctx context.Context, pkgs []*zif.Package, _ *progress.State) error {
	zlog.Debug(ctx).Int("count", len(pkgs)).Msg("no-op download (world-file packages need no fetch)")
	return nil
}

type noopKeyring struct{}

var _ txn.Keyring = noopKeyring{}

func (noopKeyring) Lookup(context.Context, *zif.Package) (zif.TrustKind, error) {
	return zif.TrustPubkey, nil
}
func (noopKeyring) ImportSystemKeys(context.Context) error      { return nil }
func (noopKeyring) ImportRepoKey(context.Context, string) error { return nil }

// loggingEngine stands in for the RPM transaction-set engine
// (commit.RPMEngine, spec.md §6): it accepts every install/erase and
// reports progress through zlog rather than driving a real rpmts.
// Building RPM transaction sets is explicitly out of scope (spec.md
// §1's "the RPM transaction-set engine" under external collaborators);
// production deployments link cgo bindings to librpm behind the same
// interface.
type loggingEngine struct {
	ctx context.Context
}

func newLoggingEngine(ctx context.Context) *loggingEngine { return &loggingEngine{ctx: ctx} }

var _ commit.RPMEngine = (*loggingEngine)(nil)

func (e *loggingEngine) SetRoot(ctx context.Context, prefix string) error {
	zlog.Debug(ctx).Str("prefix", prefix).Msg("engine: set root")
	return nil
}

func (e *loggingEngine) AddInstall(ctx context.Context, header any, allowUntrusted bool) error {
	zlog.Debug(ctx).Bool("allow_untrusted", allowUntrusted).Msg("engine: add install")
	return nil
}

func (e *loggingEngine) AddErase(ctx context.Context, header any) error {
	zlog.Debug(ctx).Msg("engine: add erase")
	return nil
}

func (e *loggingEngine) Order(ctx context.Context) error { return nil }

func (e *loggingEngine) SetFilterFlags(noDiskSpaceCheck, allowOldPackage bool) {}

func (e *loggingEngine) RunTest(ctx context.Context) ([]string, error) { return nil, nil }

func (e *loggingEngine) Run(ctx context.Context, cb func(commit.Event)) error {
	cb(commit.Event{Kind: commit.EventTransStart})
	cb(commit.Event{Kind: commit.EventTransStop})
	return nil
}
