// Package config is the typed options contract spec.md §6 calls
// "Config (consumed)" — a key/value read surface the transaction
// engine depends on without knowing where the values come from.
//
// The shape follows libindex's Opts/Parse convention: a plain struct
// with exported fields and defaults, filled in by Parse before use.
// A thin yaml.v3-backed Load on top lets the CLI and manifest runner
// build an Options from a file on disk.
package config

import (
	"time"

	"github.com/hughsie/zif"
)

// Default values for the optional keys spec.md §6 lists.
const (
	DefaultInstallOnlyLimit = 1
	DefaultLockRetries      = 10
	DefaultLockDelay        = 100 * time.Millisecond
	DefaultMetadataExpire   = time.Hour
)

// Options is the full set of config keys spec.md §6 names, typed.
type Options struct {
	Prefix  string `yaml:"prefix"`
	CacheDir string `yaml:"cachedir"`
	Logfile string `yaml:"logfile"`
	HistoryDB string `yaml:"history_db"`
	Yumdb   string `yaml:"yumdb"`

	ReleaseVer string `yaml:"releasever"`
	ArchInfo   string `yaml:"archinfo"`
	ExactArch  bool   `yaml:"exactarch"`

	InstallOnlyPkgs   []string       `yaml:"installonlypkgs"`
	InstallOnlyLimit  int            `yaml:"installonly_limit"`
	InstallOnlyLimits map[string]int `yaml:"installonly_limits"`

	Excludes           []string `yaml:"excludes"`
	ProtectedPackages  []string `yaml:"protected_packages"`
	SkipBroken         bool     `yaml:"skip_broken"`

	GPGCheck         bool `yaml:"gpgcheck"`
	LocalPkgGPGCheck bool `yaml:"localpkg_gpgcheck"`
	KeepCache        bool `yaml:"keepcache"`
	DiskSpaceCheck   bool `yaml:"diskspacecheck"`
	RPMCheckDebug    bool `yaml:"rpm_check_debug"`
	RPMVerbosity     string `yaml:"rpmverbosity"`

	MetadataExpire time.Duration `yaml:"metadata_expire"`
	LockRetries    int           `yaml:"lock_retries"`
	LockDelay      time.Duration `yaml:"lock_delay"`

	Background            bool `yaml:"background"`
	AssumeYes             bool `yaml:"assumeyes"`
	PkgCompareMode        string `yaml:"pkg_compare_mode"`
	RuntimeVersionChecks  bool `yaml:"runtime_version_checks"`
	YumdbAllowWrite       bool `yaml:"yumdb_allow_write"`
	YumdbAllowRead        bool `yaml:"yumdb_allow_read"`
	UseInstalledHistory   bool `yaml:"use_installed_history"`
	AutoEnableDebugInfo   bool `yaml:"auto_enable_debuginfo"`

	AllowUntrusted bool `yaml:"allow_untrusted"`
}

// Parse fills in defaults for zero-valued optional fields. Prefix is
// the only field treated as required.
func (o *Options) Parse() error {
	if o.Prefix == "" {
		return zif.NewStoreError("Options.Parse", zif.ErrConfigFailed, "prefix not provided", nil)
	}
	if o.ReleaseVer == "" {
		o.ReleaseVer = "unknown"
	}
	if o.InstallOnlyLimit == 0 {
		o.InstallOnlyLimit = DefaultInstallOnlyLimit
	}
	if o.LockRetries == 0 {
		o.LockRetries = DefaultLockRetries
	}
	if o.LockDelay == 0 {
		o.LockDelay = DefaultLockDelay
	}
	if o.MetadataExpire == 0 {
		o.MetadataExpire = DefaultMetadataExpire
	}
	if o.PkgCompareMode == "" {
		o.PkgCompareMode = "version"
	}
	if o.InstallOnlyLimits == nil {
		o.InstallOnlyLimits = make(map[string]int)
	}
	return nil
}

// InstallOnlyLimitFor returns the installonly_limit that applies to
// name (spec.md §4.3.1): 1 unless name is a member of InstallOnlyPkgs,
// in which case it's the per-package override in InstallOnlyLimits if
// set, else the configured InstallOnlyLimit.
func (o *Options) InstallOnlyLimitFor(name string) int {
	for _, n := range o.InstallOnlyPkgs {
		if n != name {
			continue
		}
		if limit, ok := o.InstallOnlyLimits[name]; ok {
			return limit
		}
		return o.InstallOnlyLimit
	}
	return 1
}

// IsInstallOnly reports whether name is a member of InstallOnlyPkgs.
func (o *Options) IsInstallOnly(name string) bool {
	for _, n := range o.InstallOnlyPkgs {
		if n == name {
			return true
		}
	}
	return false
}

// IsExcluded reports whether name is in the excludes list (spec.md §4.3.1).
func (o *Options) IsExcluded(name string) bool {
	for _, n := range o.Excludes {
		if n == name {
			return true
		}
	}
	return false
}

// IsProtected reports whether name is in the protected_packages list
// (spec.md §8 property 4).
func (o *Options) IsProtected(name string) bool {
	for _, n := range o.ProtectedPackages {
		if n == name {
			return true
		}
	}
	return false
}
