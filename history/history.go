// Package history implements the append-only SQLite transaction record
// of spec.md §4.6: one row per package touched by a committed
// transaction.
//
// It follows the on-disk-SQLite idiom the teacher uses for its own RPM
// database reader (rpm/sqlite/sqlite.go): a file-backed
// database/sql.DB opened through modernc.org/sqlite with a _pragma DSN
// query, and statement text built with goqu rather than hand-glued
// strings, so that every parameter — including the free-form command
// line — goes through a bound placeholder.
package history

import (
	"context"
	"database/sql"
	"net/url"
	"time"

	"github.com/doug-martin/goqu/v8"
	_ "github.com/doug-martin/goqu/v8/dialect/sqlite3"
	"github.com/quay/zlog"

	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/hughsie/zif"
)

const schema = `
CREATE TABLE IF NOT EXISTS packages (
	transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
	installed_by   TEXT NOT NULL,
	command_line   TEXT NOT NULL,
	from_repo      TEXT NOT NULL,
	reason         TEXT NOT NULL,
	releasever     TEXT NOT NULL,
	name           TEXT NOT NULL,
	version        TEXT NOT NULL,
	arch           TEXT NOT NULL,
	timestamp      INTEGER NOT NULL
);`

// Store is a handle to the history database. The schema is created
// lazily on first Open, per spec.md §3.
type Store struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	u := url.URL{
		Scheme: "file",
		Opaque: path,
		RawQuery: url.Values{
			"_pragma": {"synchronous(OFF)", "foreign_keys(1)"},
		}.Encode(),
	}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		return nil, zif.NewStoreError("history.Open", zif.ErrHistoryFailedOpen, "opening "+path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, zif.NewStoreError("history.Open", zif.ErrHistoryFailedOpen, "pinging "+path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, zif.NewStoreError("history.Open", zif.ErrHistoryFailed, "creating schema", err)
	}
	zlog.Debug(ctx).Str("path", path).Msg("opened history database")
	return &Store{db: db, dialect: goqu.Dialect("sqlite3")}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Entry is one row of the packages table.
type Entry struct {
	TransactionID int64
	InstalledBy   string
	CommandLine   string
	FromRepo      string
	Reason        zif.Reason
	ReleaseVer    string
	Name          string
	Version       string
	Arch          string
	Timestamp     int64
}

// AddEntry appends one history row for pkg.
func (s *Store) AddEntry(ctx context.Context, pkg *zif.Package, ts time.Time, reason zif.Reason, uid, cmdline, releasever string) error {
	q, args, err := s.dialect.Insert("packages").Rows(goqu.Record{
		"installed_by": uid,
		"command_line": cmdline,
		"from_repo":    pkg.RepoID,
		"reason":       string(reason),
		"releasever":   releasever,
		"name":         pkg.Name,
		"version":      pkg.Version,
		"arch":         pkg.Arch,
		"timestamp":    ts.Unix(),
	}).ToSQL()
	if err != nil {
		return zif.NewStoreError("history.AddEntry", zif.ErrHistoryFailed, "building insert", err)
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return zif.NewStoreError("history.AddEntry", zif.ErrHistoryFailed, "inserting entry", err)
	}
	return nil
}

// ListTransactions returns every distinct timestamp recorded, ascending.
// Two rows sharing a timestamp are ordered by their auto-increment id
// (spec.md §5), which a plain ascending ORDER BY timestamp already
// respects since rows are inserted in commit order.
func (s *Store) ListTransactions(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT timestamp FROM packages ORDER BY timestamp ASC, transaction_id ASC`)
	if err != nil {
		return nil, zif.NewStoreError("history.ListTransactions", zif.ErrHistoryFailed, "querying", err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, zif.NewStoreError("history.ListTransactions", zif.ErrHistoryFailed, "scanning", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// GetPackages returns every row recorded at timestamp ts.
func (s *Store) GetPackages(ctx context.Context, ts int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT transaction_id, installed_by, command_line, from_repo, reason, releasever, name, version, arch, timestamp FROM packages WHERE timestamp = ? ORDER BY transaction_id ASC`, ts)
	if err != nil {
		return nil, zif.NewStoreError("history.GetPackages", zif.ErrHistoryFailed, "querying", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var reason string
		if err := rows.Scan(&e.TransactionID, &e.InstalledBy, &e.CommandLine, &e.FromRepo, &reason, &e.ReleaseVer, &e.Name, &e.Version, &e.Arch, &e.Timestamp); err != nil {
			return nil, zif.NewStoreError("history.GetPackages", zif.ErrHistoryFailed, "scanning", err)
		}
		e.Reason = zif.Reason(reason)
		out = append(out, e)
	}
	return out, rows.Err()
}

// lookupField is the shared implementation behind GetUID, GetCmdline,
// GetRepo and GetReason: all four look up the same single column for
// the most recent row matching (name, ts).
func (s *Store) lookupField(ctx context.Context, column, name string, ts int64) (string, error) {
	q, args, err := s.dialect.From("packages").
		Select(goqu.C(column)).
		Where(goqu.C("name").Eq(name), goqu.C("timestamp").Eq(ts)).
		Order(goqu.C("transaction_id").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return "", zif.NewStoreError("history.lookupField", zif.ErrHistoryFailed, "building query for "+column, err)
	}
	row := s.db.QueryRowContext(ctx, q, args...)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", zif.NewStoreError("history.lookupField", zif.ErrNotFound, column+" not found for "+name, err)
		}
		return "", zif.NewStoreError("history.lookupField", zif.ErrHistoryFailed, "scanning "+column, err)
	}
	return v, nil
}

// GetUID returns the uid that performed pkg's transaction at ts.
func (s *Store) GetUID(ctx context.Context, pkg *zif.Package, ts int64) (string, error) {
	return s.lookupField(ctx, "installed_by", pkg.Name, ts)
}

// GetCmdline returns the recorded command line for pkg's transaction at ts.
func (s *Store) GetCmdline(ctx context.Context, pkg *zif.Package, ts int64) (string, error) {
	return s.lookupField(ctx, "command_line", pkg.Name, ts)
}

// GetRepo returns the source repo recorded for pkg's transaction at ts.
func (s *Store) GetRepo(ctx context.Context, pkg *zif.Package, ts int64) (string, error) {
	return s.lookupField(ctx, "from_repo", pkg.Name, ts)
}

// GetReason returns the reason recorded for pkg's transaction at ts.
func (s *Store) GetReason(ctx context.Context, pkg *zif.Package, ts int64) (zif.Reason, error) {
	v, err := s.lookupField(ctx, "reason", pkg.Name, ts)
	return zif.Reason(v), err
}

// GetRepoNewest returns the most recently recorded from_repo for pkg,
// across all transactions.
func (s *Store) GetRepoNewest(ctx context.Context, pkg *zif.Package) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT from_repo FROM packages WHERE name = ? ORDER BY timestamp DESC, transaction_id DESC LIMIT 1`, pkg.Name)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return "", zif.NewStoreError("history.GetRepoNewest", zif.ErrNotFound, "no history for "+pkg.Name, err)
		}
		return "", zif.NewStoreError("history.GetRepoNewest", zif.ErrHistoryFailed, "scanning", err)
	}
	return v, nil
}

// YumdbSource is the subset of yumdb.Store that Import needs to walk
// in order to import legacy per-package records.
type YumdbSource interface {
	GetPackages(ctx context.Context) ([]*zif.Package, error)
	Get(ctx context.Context, pkg *zif.Package, key string) ([]byte, error)
}

// Import walks yumdb and copies each installed package's from_repo,
// installed_by, reason, and from_repo_timestamp into the SQLite table,
// per spec.md §4.6.
//
// releasever is read from config, not hard-coded, per the Open
// Questions decision in SPEC_FULL.md §6.1 — the source hard-codes 16
// regardless of the actual release. When a package's own yumdb
// "releasever" key disagrees with the config value, the yumdb-recorded
// value is kept for that row (it reflects what was actually installed)
// and the mismatch is logged at Warn.
func (s *Store) Import(ctx context.Context, y YumdbSource, releasever string) error {
	pkgs, err := y.GetPackages(ctx)
	if err != nil {
		return zif.NewStoreError("history.Import", zif.ErrHistoryFailed, "listing yumdb packages", err)
	}
	for _, p := range pkgs {
		repo, _ := y.Get(ctx, p, "from_repo")
		uid, _ := y.Get(ctx, p, "installed_by")
		reason, _ := y.Get(ctx, p, "reason")
		tsRaw, _ := y.Get(ctx, p, "from_repo_timestamp")
		ts := time.Now()
		if len(tsRaw) > 0 {
			if parsed, err := time.Parse(time.RFC3339, string(tsRaw)); err == nil {
				ts = parsed
			}
		}

		rowReleasever := releasever
		if recorded, err := y.Get(ctx, p, "releasever"); err == nil && len(recorded) > 0 && string(recorded) != releasever {
			zlog.Warn(ctx).Str("pkg", p.NEVRA()).Str("config_releasever", releasever).
				Str("yumdb_releasever", string(recorded)).Msg("releasever mismatch on import, keeping yumdb value")
			rowReleasever = string(recorded)
		}

		p.RepoID = string(repo)
		if err := s.AddEntry(ctx, p, ts, zif.Reason(reason), string(uid), "", rowReleasever); err != nil {
			return err
		}
	}
	return nil
}
