package config

import "testing"

func TestParseDefaults(t *testing.T) {
	o := &Options{Prefix: "/"}
	if err := o.Parse(); err != nil {
		t.Fatalf("Parse returned %v", err)
	}
	if o.ReleaseVer != "unknown" {
		t.Errorf("ReleaseVer = %q, want unknown default", o.ReleaseVer)
	}
	if o.InstallOnlyLimit != DefaultInstallOnlyLimit {
		t.Errorf("InstallOnlyLimit = %d, want default %d", o.InstallOnlyLimit, DefaultInstallOnlyLimit)
	}
	if o.LockRetries != DefaultLockRetries {
		t.Errorf("LockRetries = %d, want default %d", o.LockRetries, DefaultLockRetries)
	}
	if o.PkgCompareMode != "version" {
		t.Errorf("PkgCompareMode = %q, want version", o.PkgCompareMode)
	}
}

func TestParseRequiresPrefix(t *testing.T) {
	o := &Options{}
	if err := o.Parse(); err == nil {
		t.Error("expected Parse to fail without a Prefix")
	}
}

func TestInstallOnlyLimitFor(t *testing.T) {
	o := &Options{
		Prefix:            "/",
		InstallOnlyPkgs:   []string{"kernel"},
		InstallOnlyLimit:  1,
		InstallOnlyLimits: map[string]int{"kernel": 3},
	}
	if err := o.Parse(); err != nil {
		t.Fatal(err)
	}
	if got := o.InstallOnlyLimitFor("kernel"); got != 3 {
		t.Errorf("InstallOnlyLimitFor(kernel) = %d, want 3", got)
	}
	if got := o.InstallOnlyLimitFor("kernel-headers"); got != 1 {
		t.Errorf("InstallOnlyLimitFor(kernel-headers) = %d, want the global default 1", got)
	}
}

func TestIsExcludedAndIsProtected(t *testing.T) {
	o := &Options{
		Prefix:            "/",
		Excludes:          []string{"foo"},
		ProtectedPackages: []string{"glibc"},
	}
	if !o.IsExcluded("foo") {
		t.Error("expected foo to be excluded")
	}
	if o.IsExcluded("bar") {
		t.Error("expected bar to not be excluded")
	}
	if !o.IsProtected("glibc") {
		t.Error("expected glibc to be protected")
	}
	if o.IsProtected("foo") {
		t.Error("expected foo to not be protected")
	}
}
