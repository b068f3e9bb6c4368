package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/quay/zlog"
	"github.com/spf13/cobra"

	"github.com/hughsie/zif/commit"
	"github.com/hughsie/zif/config"
	"github.com/hughsie/zif/history"
	"github.com/hughsie/zif/manifest"
	"github.com/hughsie/zif/progress"
	"github.com/hughsie/zif/store"
	"github.com/hughsie/zif/txn"
	"github.com/hughsie/zif/yumdb"
)

// app bundles the wiring every subcommand needs: config, the local and
// remote stores (from the world file — standing in for the LocalStore
// RPMDatabaseReader and RemoteStore MetadataParser external
// collaborators spec.md §1 scopes out), history, and yumdb.
type app struct {
	cfg    *config.Options
	local  store.Store
	remote []store.Store
	hist   *history.Store
	yumdb  *yumdb.Store
}

func newApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.AssumeYes = cfg.AssumeYes || opts.AssumeYes

	var localStore store.Store = store.NewMetaStore("installed", cfg.ArchInfo)
	var remoteStores []store.Store
	if opts.WorldPath != "" {
		f, err := os.Open(opts.WorldPath)
		if err != nil {
			return nil, fmt.Errorf("opening world file: %w", err)
		}
		defer f.Close()
		world, err := manifest.Parse(opts.WorldPath, f)
		if err != nil {
			return nil, fmt.Errorf("parsing world file: %w", err)
		}
		world.Local.NativeArch = cfg.ArchInfo
		world.Remote.NativeArch = cfg.ArchInfo
		localStore = world.Local
		remoteStores = []store.Store{world.Remote}
	}

	hist, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	return &app{
		cfg:    cfg,
		local:  localStore,
		remote: remoteStores,
		hist:   hist,
		yumdb:  yumdb.New(cfg.Yumdb),
	}, nil
}

func (a *app) close() { a.hist.Close() }

// withApp opens an app for opts, builds a clean Transaction, lets
// populate add its intents, then drives the transaction through the
// full Resolve/Prepare/Commit pipeline. Every subcommand is a thin
// wrapper around this.
func withApp(cmd *cobra.Command, opts *RootOptions, populate func(ctx context.Context, a *app, t *txn.Transaction) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	t := a.newTransaction()
	if err := populate(ctx, a, t); err != nil {
		return err
	}
	return a.runPipeline(ctx, t)
}

// newTransaction builds a clean Transaction against a's stores.
func (a *app) newTransaction() *txn.Transaction {
	return txn.New(a.local, a.remote, a.cfg, a.cfg.ArchInfo, currentUID(), cmdline())
}

// runPipeline drives t through Resolve → Prepare → Commit using the
// stand-in RPMEngine/Downloader/Keyring in engine.go, logging the plan
// before committing. Real deployments supply production
// implementations of those three interfaces (spec.md §6); this CLI
// only orchestrates them.
func (a *app) runPipeline(ctx context.Context, t *txn.Transaction) error {
	pstate := progress.New(ctx, 3)

	if err := t.Resolve(ctx, pstate.Child(1)); err != nil {
		return fmt.Errorf("resolving transaction: %w", err)
	}

	for _, it := range t.GetInstall() {
		zlog.Info(ctx).Str("pkg", it.Package.NEVRA()).Str("reason", string(it.Reason)).Msg("will install")
	}
	for _, it := range t.GetRemove() {
		zlog.Info(ctx).Str("pkg", it.Package.NEVRA()).Str("reason", string(it.Reason)).Msg("will remove")
	}

	if err := t.Prepare(ctx, pstate.Child(1), noopDownloader{}, noopKeyring{}); err != nil {
		return fmt.Errorf("preparing transaction: %w", err)
	}

	engine := newLoggingEngine(ctx)
	if err := commit.Run(ctx, t, a.cfg, engine, a.hist, a.yumdb, pstate.Child(1)); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
