package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hughsie/zif"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddEntryAndListTransactions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pkg := &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64", RepoID: "updates"}
	ts := time.Unix(1700000000, 0)

	if err := s.AddEntry(ctx, pkg, ts, zif.ReasonInstallUserAction, "0", "zif install foo", "40"); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	txns, err := s.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txns) != 1 || txns[0] != ts.Unix() {
		t.Fatalf("ListTransactions = %v, want [%d]", txns, ts.Unix())
	}

	entries, err := s.GetPackages(ctx, ts.Unix())
	if err != nil {
		t.Fatalf("GetPackages: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "foo" {
		t.Fatalf("GetPackages = %+v, want one foo entry", entries)
	}
}

func TestLookupFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pkg := &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64", RepoID: "updates"}
	ts := time.Unix(1700000000, 0)
	if err := s.AddEntry(ctx, pkg, ts, zif.ReasonInstallUserAction, "1000", "zif install foo", "40"); err != nil {
		t.Fatal(err)
	}

	if uid, err := s.GetUID(ctx, pkg, ts.Unix()); err != nil || uid != "1000" {
		t.Errorf("GetUID = (%q, %v), want (1000, nil)", uid, err)
	}
	if cmdline, err := s.GetCmdline(ctx, pkg, ts.Unix()); err != nil || cmdline != "zif install foo" {
		t.Errorf("GetCmdline = (%q, %v), want (zif install foo, nil)", cmdline, err)
	}
	if repo, err := s.GetRepo(ctx, pkg, ts.Unix()); err != nil || repo != "updates" {
		t.Errorf("GetRepo = (%q, %v), want (updates, nil)", repo, err)
	}
	if reason, err := s.GetReason(ctx, pkg, ts.Unix()); err != nil || reason != zif.ReasonInstallUserAction {
		t.Errorf("GetReason = (%v, %v), want (%v, nil)", reason, err, zif.ReasonInstallUserAction)
	}
}

func TestGetRepoNewestAcrossTransactions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pkg := &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}
	pkg.RepoID = "base"
	if err := s.AddEntry(ctx, pkg, time.Unix(1000, 0), zif.ReasonInstallUserAction, "0", "", "40"); err != nil {
		t.Fatal(err)
	}
	pkg.RepoID = "updates"
	if err := s.AddEntry(ctx, pkg, time.Unix(2000, 0), zif.ReasonUpdateUserAction, "0", "", "40"); err != nil {
		t.Fatal(err)
	}

	repo, err := s.GetRepoNewest(ctx, pkg)
	if err != nil {
		t.Fatalf("GetRepoNewest: %v", err)
	}
	if repo != "updates" {
		t.Errorf("GetRepoNewest = %q, want updates (the later transaction)", repo)
	}
}

// fakeYumdb implements YumdbSource for TestImport, standing in for a
// real yumdb.Store without touching the filesystem.
type fakeYumdb struct {
	pkgs []*zif.Package
	data map[string]map[string][]byte
}

func (f *fakeYumdb) GetPackages(ctx context.Context) ([]*zif.Package, error) { return f.pkgs, nil }

func (f *fakeYumdb) Get(ctx context.Context, pkg *zif.Package, key string) ([]byte, error) {
	return f.data[pkg.Name][key], nil
}

func TestImport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pkg := &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}
	y := &fakeYumdb{
		pkgs: []*zif.Package{pkg},
		data: map[string]map[string][]byte{
			"foo": {
				"from_repo":    []byte("updates"),
				"installed_by": []byte("0"),
				"reason":       []byte(string(zif.ReasonInstallUserAction)),
			},
		},
	}

	if err := s.Import(ctx, y, "40"); err != nil {
		t.Fatalf("Import: %v", err)
	}

	txns, err := s.ListTransactions(ctx)
	if err != nil || len(txns) != 1 {
		t.Fatalf("ListTransactions after Import = %v, %v, want one transaction", txns, err)
	}

	repo, err := s.GetRepo(ctx, pkg, txns[0])
	if err != nil {
		t.Fatalf("GetRepo after Import: %v", err)
	}
	if repo != "updates" {
		t.Errorf("GetRepo after Import = %q, want updates (copied from yumdb's from_repo key)", repo)
	}
}
