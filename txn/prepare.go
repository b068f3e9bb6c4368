package txn

import (
	"context"

	"github.com/quay/zlog"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/progress"
)

// Downloader is the external download engine spec.md §6 describes:
// "download_file(url, destination, expected_size, expected_mimetype,
// checksum_kind, checksum, state)" generalized to a batch call over
// every package that needs fetching.
type Downloader interface {
	Download(ctx context.Context, pkgs []*zif.Package, state *progress.State) error
}

// Keyring is the external RPM keyring spec.md §4.4 step 4 consults:
// signature lookup against imported public keys, with on-demand import
// from the filesystem and a repo's gpgkey URL.
type Keyring interface {
	// Lookup returns the trust state of pkg's signature, reading its
	// header via Header (populated by the RPM engine during Resolve's
	// remote metadata refresh, or by opening the local file).
	Lookup(ctx context.Context, pkg *zif.Package) (zif.TrustKind, error)
	// ImportSystemKeys imports every key under /etc/pki/rpm-gpg/* once
	// per transaction.
	ImportSystemKeys(ctx context.Context) error
	// ImportRepoKey imports the gpgkey configured for repoID.
	ImportRepoKey(ctx context.Context, repoID string) error
}

// cacheFilename derives the cache path a remote package's downloaded
// artifact would live at; mirrors the teacher's deterministic naming
// for on-disk layer blobs (filerfs), adapted to NEVRA instead of digest.
func cacheFilename(cacheDir string, p *zif.Package) string {
	return cacheDir + "/" + p.NEVRA() + ".rpm"
}

// Prepare implements spec.md §4.4: stage every remote install's
// artifact locally and establish its trust state before commit may
// run.
func (t *Transaction) Prepare(ctx context.Context, pstate *progress.State, dl Downloader, keyring Keyring) error {
	if err := t.requireState("Transaction.Prepare", StateResolved); err != nil {
		return err
	}
	ctx = t.logCtx(ctx, "Prepare")

	installs := t.GetInstall()
	pstate = pstate.Child(len(installs) + 1)

	var toDownload []*zif.Package
	for _, it := range installs {
		p := it.Package
		if p.Origin != zif.OriginRemote {
			continue
		}
		p.CacheFilename = cacheFilename(t.Config.CacheDir, p)
		toDownload = append(toDownload, p)
	}

	if len(toDownload) > 0 {
		if err := dl.Download(ctx, toDownload, pstate); err != nil {
			return zif.NewTransactionError("Transaction.Prepare", zif.ErrTransactionFailed, "downloading packages", err)
		}
	}
	t.Download = toDownload
	if err := pstate.Done(1); err != nil {
		return err
	}

	importedSystem := false
	for _, it := range installs {
		p := it.Package
		checkEnabled := (p.Origin == zif.OriginLocalFile && t.Config.LocalPkgGPGCheck) ||
			(p.Origin == zif.OriginRemote && t.Config.GPGCheck)
		if !checkEnabled {
			if err := pstate.Done(1); err != nil {
				return err
			}
			continue
		}

		trust, err := keyring.Lookup(ctx, p)
		switch {
		case err == nil && trust == zif.TrustPubkey:
			p.Trust = zif.TrustPubkey
		case err == nil:
			// missing: retry once via system keys then the repo key.
			if !importedSystem {
				_ = keyring.ImportSystemKeys(ctx)
				importedSystem = true
			}
			if p.RepoID != "" {
				_ = keyring.ImportRepoKey(ctx, p.RepoID)
			}
			if trust2, err2 := keyring.Lookup(ctx, p); err2 == nil && trust2 == zif.TrustPubkey {
				p.Trust = zif.TrustPubkey
			} else {
				p.Trust = zif.TrustNone
			}
		default:
			return zif.NewTransactionError("Transaction.Prepare", zif.ErrTransactionFailed,
				"signature lookup failed for "+p.NEVRA(), err)
		}
		if err := pstate.Done(1); err != nil {
			return err
		}
	}

	t.state = StatePrepared
	zlog.Info(ctx).Int("downloaded", len(toDownload)).Msg("transaction prepared")
	return nil
}
