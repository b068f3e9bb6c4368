package commit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/txn"
)

func TestAppendSystemLogNoLogfile(t *testing.T) {
	if err := appendSystemLog("", nil, nil); err != nil {
		t.Fatalf("appendSystemLog with no logfile should be a no-op, got %v", err)
	}
}

func TestAppendSystemLogFormat(t *testing.T) {
	dir := t.TempDir()
	logfile := filepath.Join(dir, "yum.log")

	installs := []*txn.Item{
		{Package: &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "x86_64"}, Reason: zif.ReasonInstallUserAction},
	}
	removes := []*txn.Item{
		{Package: &zif.Package{Name: "bar", Version: "2.0", Release: "1", Arch: "x86_64"}, Reason: zif.ReasonRemoveUserAction},
	}

	if err := appendSystemLog(logfile, installs, removes); err != nil {
		t.Fatalf("appendSystemLog: %v", err)
	}

	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "Zif: [install] foo-1.0-1.x86_64 (install-user-action)\n" +
		"Zif: [remove] bar-2.0-1.x86_64 (remove-user-action)\n"
	if got := string(data); got != want {
		t.Errorf("log contents = %q, want %q", got, want)
	}
}

func TestAppendSystemLogNoPrefixForZifDotLog(t *testing.T) {
	dir := t.TempDir()
	logfile := filepath.Join(dir, "zif.log")

	installs := []*txn.Item{
		{Package: &zif.Package{Name: "foo", Version: "1.0", Release: "1", Arch: "noarch"}, Reason: zif.ReasonInstallDepend},
	}

	if err := appendSystemLog(logfile, installs, nil); err != nil {
		t.Fatalf("appendSystemLog: %v", err)
	}

	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "[install] foo-1.0-1.noarch (install-depend)\n"
	if got := string(data); got != want {
		t.Errorf("log contents = %q, want %q", got, want)
	}
}

func TestAppendSystemLogAppends(t *testing.T) {
	dir := t.TempDir()
	logfile := filepath.Join(dir, "yum.log")

	first := []*txn.Item{{Package: &zif.Package{Name: "a", Version: "1", Release: "1", Arch: "noarch"}, Reason: zif.ReasonInstallUserAction}}
	second := []*txn.Item{{Package: &zif.Package{Name: "b", Version: "1", Release: "1", Arch: "noarch"}, Reason: zif.ReasonInstallUserAction}}

	if err := appendSystemLog(logfile, first, nil); err != nil {
		t.Fatal(err)
	}
	if err := appendSystemLog(logfile, second, nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatal(err)
	}
	want := "Zif: [install] a-1-1.noarch (install-user-action)\n" +
		"Zif: [install] b-1-1.noarch (install-user-action)\n"
	if got := string(data); got != want {
		t.Errorf("log contents = %q, want %q", got, want)
	}
}
