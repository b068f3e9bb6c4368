package commit

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/config"
	"github.com/hughsie/zif/history"
	"github.com/hughsie/zif/progress"
	"github.com/hughsie/zif/txn"
	"github.com/hughsie/zif/yumdb"
)

// Run commits t through engine, implementing spec.md §4.5 end to end:
// lock, populate, order, optionally test, run with progress, capture
// scriptlets, then persist history and yumdb bookkeeping.
func Run(ctx context.Context, t *txn.Transaction, cfg *config.Options, engine RPMEngine, hist *history.Store, yumdbStore *yumdb.Store, pstate *progress.State) error {
	if t.State() != txn.StatePrepared {
		return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed, "transaction is not prepared", nil)
	}
	ctx = zlog.ContextWithValues(ctx, "component", "commit.Run", "txn_id", t.ID.String())

	unlock, err := acquireWriteLock(ctx, cfg.Prefix, cfg.LockRetries, cfg.LockDelay)
	if err != nil {
		return err
	}
	defer unlock()

	if err := engine.SetRoot(ctx, cfg.Prefix); err != nil {
		return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed, "setting transaction root", err)
	}

	installs := t.GetInstall()
	removes := t.GetRemove()

	for _, it := range installs {
		if err := engine.AddInstall(ctx, it.Package.Header, cfg.AllowUntrusted); err != nil {
			return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed,
				"adding install "+it.Package.NEVRA(), err)
		}
	}
	for _, it := range removes {
		if err := engine.AddErase(ctx, it.Package.Header); err != nil {
			return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed,
				"adding erase "+it.Package.NEVRA(), err)
		}
	}

	if err := engine.Order(ctx); err != nil {
		return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed, "ordering transaction set", err)
	}

	if cfg.RPMCheckDebug {
		problems, err := engine.RunTest(ctx)
		if err != nil {
			return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed, "test transaction failed", err)
		}
		if len(problems) > 0 {
			return zif.NewTransactionError("commit.Run", zif.ErrConflicting, fmt.Sprintf("%d problem(s): %v", len(problems), problems), nil)
		}
	}

	anyDowngrade := false
	for _, it := range installs {
		if it.Reason.IsDowngrade() {
			anyDowngrade = true
			break
		}
	}
	engine.SetFilterFlags(!cfg.DiskSpaceCheck, anyDowngrade)

	scriptlog, err := os.CreateTemp("", "zif-scriptlet-*.log")
	if err != nil {
		return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed, "creating scriptlet log", err)
	}
	scriptlogPath := scriptlog.Name()
	scriptlog.Close()
	defer os.Remove(scriptlogPath)

	cstate := pstate.Child(len(installs) + len(removes) + 2)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	sigDone := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			cstate.Cancel()
		case <-sigDone:
		}
	}()

	runErr := engine.Run(ctx, func(ev Event) {
		switch ev.Kind {
		case EventTransStart, EventTransStop:
		case EventInstallStart, EventRemoveStart, EventProgress:
			_ = cstate.Done(1)
		}
	})

	close(sigDone)
	signal.Stop(sigCh)

	if runErr != nil {
		return zif.NewTransactionError("commit.Run", zif.ErrTransactionFailed, "running transaction", runErr)
	}

	scriptOutput, _ := os.ReadFile(scriptlogPath)

	now := time.Now()
	for _, it := range installs {
		if err := hist.AddEntry(ctx, it.Package, now, it.Reason, t.UID, t.Cmdline, cfg.ReleaseVer); err != nil {
			return err
		}
		if cfg.YumdbAllowWrite {
			reason := "user"
			if it.Reason != zif.ReasonInstallUserAction {
				reason = "dep"
			}
			_ = yumdbStore.Set(ctx, it.Package, "from_repo", []byte(it.Package.RepoID))
			_ = yumdbStore.Set(ctx, it.Package, "installed_by", []byte(t.UID))
			_ = yumdbStore.Set(ctx, it.Package, "reason", []byte(reason))
			_ = yumdbStore.Set(ctx, it.Package, "releasever", []byte(cfg.ReleaseVer))
		}
	}
	for _, it := range removes {
		if err := hist.AddEntry(ctx, it.Package, now, it.Reason, t.UID, t.Cmdline, cfg.ReleaseVer); err != nil {
			return err
		}
		if cfg.YumdbAllowWrite {
			_ = yumdbStore.RemoveAll(ctx, it.Package)
		}
	}

	if err := appendSystemLog(cfg.Logfile, installs, removes); err != nil {
		zlog.Error(ctx).Err(err).Msg("failed to append system log")
	}

	if !cfg.KeepCache {
		for _, p := range t.Download {
			_ = os.Remove(p.CacheFilename)
		}
	}

	if err := t.MarkCommitted(); err != nil {
		return err
	}

	zlog.Info(ctx).
		Int("installed", len(installs)).
		Int("removed", len(removes)).
		Int("scriptlet_bytes", len(scriptOutput)).
		Msg("transaction committed")
	return nil
}

// appendSystemLog implements spec.md §6's "Persisted layouts" system
// log format: one "[install] <nevra> (<reason>)" or "[remove] ..."
// line per item, prefixed with "Zif: " unless logfile's basename is
// literally zif.log.
func appendSystemLog(logfile string, installs, removes []*txn.Item) error {
	if logfile == "" {
		return nil
	}
	f, err := os.OpenFile(logfile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	prefix := "Zif: "
	if filepath.Base(logfile) == "zif.log" {
		prefix = ""
	}
	for _, it := range installs {
		if _, err := fmt.Fprintf(f, "%s[install] %s (%s)\n", prefix, it.Package.NEVRA(), it.Reason); err != nil {
			return err
		}
	}
	for _, it := range removes {
		if _, err := fmt.Fprintf(f, "%s[remove] %s (%s)\n", prefix, it.Package.NEVRA(), it.Reason); err != nil {
			return err
		}
	}
	return nil
}
