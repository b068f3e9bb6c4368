// Package manifest is the offline test harness spec.md §9 calls for:
// "a thin front-end that builds MetaStore instances from the described
// text format and drives the transaction engine exactly as production
// would."
//
// The text format is grounded directly on the original zif's own
// .manifest file format (libzif/zif-manifest.c): tab-indented sections
// (config / local / remote / transaction / result), a package-id line
// "name;[epoch:]version-release;arch" per installed/available package,
// and indented Requires/Provides/Conflicts/Obsoletes/Files/Srpm
// resource blocks under each package. Parsing itself is written the Go
// way — a line scanner plus small per-section handlers — rather than
// translated from the C state machine.
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	shlex "github.com/hugelgupf/go-shlex"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/config"
	"github.com/hughsie/zif/progress"
	"github.com/hughsie/zif/store"
	"github.com/hughsie/zif/txn"
)

// section names the top-level block a line belongs to.
type section int

const (
	sectionNone section = iota
	sectionConfig
	sectionLocal
	sectionRemote
	sectionTransaction
	sectionResult
)

// action names one requested transaction intent (spec.md §4.3 queues).
type action int

const (
	actionUnknown action = iota
	actionInstall
	actionUpdate
	actionRemove
	actionDowngrade
)

func actionFromString(s string) action {
	switch s {
	case "install":
		return actionInstall
	case "update":
		return actionUpdate
	case "remove":
		return actionRemove
	case "downgrade":
		return actionDowngrade
	default:
		return actionUnknown
	}
}

// resource names a per-package dependency/attribute block.
type resource int

const (
	resourceUnknown resource = iota
	resourceRequires
	resourceProvides
	resourceConflicts
	resourceObsoletes
	resourceFiles
	resourceSrpm
)

func resourceFromString(s string) resource {
	switch s {
	case "Requires":
		return resourceRequires
	case "Provides":
		return resourceProvides
	case "Conflicts":
		return resourceConflicts
	case "Obsoletes":
		return resourceObsoletes
	case "Files":
		return resourceFiles
	case "Srpm":
		return resourceSrpm
	default:
		return resourceUnknown
	}
}

// pendingIntent is one unresolved "transaction" line, resolved against
// the local or remote store once parsing completes.
type pendingIntent struct {
	action action
	name   string
}

// Fixture is a fully-parsed manifest: two virtual stores, a requested
// config overlay, the queued intents, and an optional expected
// post-resolve package set.
type Fixture struct {
	Name string

	ConfigLines []string // raw "key=value" lines, applied over defaults in Build
	Local       *store.MetaStore
	Remote      *store.MetaStore

	Intents []pendingIntent
	Result  []nevra // expected post-resolve local package set; nil if unchecked

	// Disabled mirrors the original format's "disable" directive: a
	// manifest that opts itself out, kept for parity even though no
	// shipped fixture currently sets it.
	Disabled bool
}

type nevra struct {
	name, evr, arch string
}

// Parse reads a manifest from r. name is used only in error messages.
func Parse(name string, r io.Reader) (*Fixture, error) {
	f := &Fixture{
		Name:   name,
		Local:  store.NewMetaStore("installed", ""),
		Remote: store.NewMetaStore("manifest-remote", ""),
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		sec        = sectionNone
		curAction  = actionUnknown
		curRes     = resourceUnknown
		curPackage *zif.Package
	)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if raw == "" || strings.HasPrefix(strings.TrimLeft(raw, "\t"), "#") {
			continue
		}
		if raw == "disable" {
			f.Disabled = true
			continue
		}

		level := 0
		for level < len(raw) && raw[level] == '\t' {
			level++
		}
		text := raw[level:]
		if text == "" {
			continue
		}
		if level > 3 {
			return nil, fmt.Errorf("%s:%d: too much indentation %q", name, lineNo, raw)
		}

		switch level {
		case 0:
			switch text {
			case "config":
				sec = sectionConfig
			case "local":
				sec = sectionLocal
				curPackage = nil
			case "remote":
				sec = sectionRemote
				curPackage = nil
			case "transaction":
				sec = sectionTransaction
			case "result":
				sec = sectionResult
				f.Result = []nevra{}
			default:
				return nil, fmt.Errorf("%s:%d: unknown section %q", name, lineNo, text)
			}

		case 1:
			switch sec {
			case sectionConfig:
				f.ConfigLines = append(f.ConfigLines, text)
			case sectionLocal, sectionRemote:
				n, evr, arch, err := parseNEVRA(text)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
				}
				p := newMetaPackage(n, evr, arch)
				if sec == sectionLocal {
					p.Origin = zif.OriginInstalled
					f.Local.Add(p)
				} else {
					p.Origin = zif.OriginRemote
					p.RepoID = f.Remote.ID()
					f.Remote.Add(p)
				}
				curPackage = p
			case sectionTransaction:
				a := actionFromString(text)
				if a == actionUnknown {
					return nil, fmt.Errorf("%s:%d: unknown transaction kind %q", name, lineNo, text)
				}
				curAction = a
			case sectionResult:
				n, evr, arch, err := parseNEVRA(text)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
				}
				f.Result = append(f.Result, nevra{n, evr, arch})
			default:
				return nil, fmt.Errorf("%s:%d: unexpected line %q", name, lineNo, text)
			}

		case 2:
			switch sec {
			case sectionLocal, sectionRemote:
				r := resourceFromString(text)
				if r == resourceUnknown {
					return nil, fmt.Errorf("%s:%d: unknown resource kind %q", name, lineNo, text)
				}
				curRes = r
			case sectionTransaction:
				f.Intents = append(f.Intents, pendingIntent{action: curAction, name: text})
			default:
				return nil, fmt.Errorf("%s:%d: unexpected line %q", name, lineNo, text)
			}

		case 3:
			if sec != sectionLocal && sec != sectionRemote {
				return nil, fmt.Errorf("%s:%d: unexpected line %q", name, lineNo, text)
			}
			if curPackage == nil {
				return nil, fmt.Errorf("%s:%d: resource line before any package", name, lineNo)
			}
			if err := applyResource(curPackage, curRes, text); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// parseNEVRA splits a manifest package-id "name;[epoch:]version-release;arch"
// into its three parts, tolerating a trailing ";data" tag the original
// format carries (e.g. ";meta") which this rewrite ignores — origin is
// implied by the section instead.
func parseNEVRA(s string) (name, evr, arch string, err error) {
	parts := strings.Split(s, ";")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("malformed package id %q: want name;evr;arch", s)
	}
	return parts[0], parts[1], parts[2], nil
}

func newMetaPackage(name, evr, arch string) *zif.Package {
	epoch, version, release := splitEVR(evr)
	return &zif.Package{
		Name: name, Epoch: epoch, Version: version, Release: release,
		Arch: arch, Origin: zif.OriginMeta,
	}
}

// splitEVR splits "[epoch:]version-release" into its parts.
func splitEVR(evr string) (epoch uint, version, release string) {
	if i := strings.IndexByte(evr, ':'); i >= 0 {
		if n, err := strconv.ParseUint(evr[:i], 10, 64); err == nil {
			epoch = uint(n)
		}
		evr = evr[i+1:]
	}
	if i := strings.LastIndexByte(evr, '-'); i >= 0 {
		return epoch, evr[:i], evr[i+1:]
	}
	return epoch, evr, ""
}

// applyResource attaches one Requires/Provides/Conflicts/Obsoletes/
// Files/Srpm line to pkg.
func applyResource(pkg *zif.Package, r resource, text string) error {
	switch r {
	case resourceRequires, resourceProvides, resourceConflicts, resourceObsoletes:
		d, err := parseDepend(text)
		if err != nil {
			return err
		}
		switch r {
		case resourceRequires:
			pkg.Requires = append(pkg.Requires, d)
		case resourceProvides:
			pkg.Provides = append(pkg.Provides, d)
		case resourceConflicts:
			pkg.Conflicts = append(pkg.Conflicts, d)
		case resourceObsoletes:
			pkg.Obsoletes = append(pkg.Obsoletes, d)
		}
	case resourceFiles:
		pkg.Files = append(pkg.Files, text)
	case resourceSrpm:
		pkg.SourceRPM = text
	case resourceUnknown:
		return fmt.Errorf("no resource kind set")
	}
	return nil
}

// parseDepend parses "name", "name = version", "name >= version", etc.
// Tokenizing goes through go-shlex rather than strings.Fields so a
// version carrying embedded whitespace can be quoted; the rest of the
// fixture format is split by tab indentation and ';' instead.
func parseDepend(text string) (zif.Depend, error) {
	fields := shlex.Split(text)
	switch len(fields) {
	case 1:
		return zif.NewDepend(fields[0], zif.FlagAny, ""), nil
	case 3:
		var flag zif.DependFlag
		switch fields[1] {
		case "=", "==":
			flag = zif.FlagEqual
		case ">=":
			flag = zif.FlagGreaterOrEqual
		case "<=":
			flag = zif.FlagLessOrEqual
		case ">":
			flag = zif.FlagGreater
		case "<":
			flag = zif.FlagLess
		default:
			return zif.Depend{}, fmt.Errorf("unknown depend operator %q in %q", fields[1], text)
		}
		return zif.NewDepend(fields[0], flag, fields[2]), nil
	default:
		return zif.Depend{}, fmt.Errorf("malformed depend description %q", text)
	}
}

// Outcome is the post-run state a test asserts against.
type Outcome struct {
	Transaction *txn.Transaction
	ResolveErr  error
	// ResultMismatch is non-empty when the fixture declared a "result"
	// section and the post-resolve local store didn't match it.
	ResultMismatch string
}

// Build constructs the Transaction for f without resolving it, so
// callers needing finer control (e.g. skip-broken variants) can adjust
// config first.
func (f *Fixture) Build(nativeArch string) (*txn.Transaction, error) {
	f.Local.NativeArch = nativeArch
	f.Remote.NativeArch = nativeArch

	cfg := &config.Options{Prefix: "/", ArchInfo: nativeArch}
	for _, line := range f.ConfigLines {
		if err := applyConfigLine(cfg, line); err != nil {
			return nil, err
		}
	}
	if err := cfg.Parse(); err != nil {
		return nil, err
	}

	t := txn.New(f.Local, []store.Store{f.Remote}, cfg, nativeArch, "0", "manifest")

	for _, in := range f.Intents {
		storeHint := f.Local
		if in.action == actionInstall || in.action == actionDowngrade {
			storeHint = f.Remote
		}
		p, err := resolveIntentPackage(storeHint, in.name)
		if err != nil {
			return nil, fmt.Errorf("intent %q: %w", in.name, err)
		}
		switch in.action {
		case actionInstall:
			if err := t.AddInstall(p, zif.ReasonInstallUserAction); err != nil {
				return nil, err
			}
		case actionUpdate:
			if err := t.AddUpdate(p, zif.ReasonUpdateUserAction); err != nil {
				return nil, err
			}
		case actionRemove:
			if err := t.AddRemove(p, zif.ReasonRemoveUserAction); err != nil {
				return nil, err
			}
		case actionDowngrade:
			if err := t.AddDowngrade(p); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// resolveIntentPackage looks up name in s, either as an exact
// package-id ("name;evr;arch") or as a bare name resolved to the
// newest match, mirroring zif_manifest_add_package_to_transaction.
func resolveIntentPackage(s *store.MetaStore, name string) (*zif.Package, error) {
	if strings.Contains(name, ";") {
		n, evr, arch, err := parseNEVRA(name)
		if err != nil {
			return nil, err
		}
		epoch, version, release := splitEVR(evr)
		for _, p := range s.Packages {
			if p.Name == n && p.Epoch == epoch && p.Version == version && p.Release == release && p.Arch == arch {
				return p, nil
			}
		}
		return nil, fmt.Errorf("package %q not found in %s", name, s.ID())
	}
	ctx := context.Background()
	found, err := s.Resolve(ctx, []string{name}, store.FlagName)
	if err != nil {
		return nil, err
	}
	if len(found) == 1 {
		return found[0], nil
	}
	newest := found[0]
	for _, p := range found[1:] {
		if zif.Compare(p, newest, zif.CompareVersion) > 0 {
			newest = p
		}
	}
	return newest, nil
}

func applyConfigLine(cfg *config.Options, line string) error {
	k, v, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("malformed config line %q", line)
	}
	switch k {
	case "archinfo":
		cfg.ArchInfo = v
	case "exactarch":
		cfg.ExactArch = v == "true"
	case "skip_broken":
		cfg.SkipBroken = v == "true"
	case "installonlypkgs":
		cfg.InstallOnlyPkgs = strings.Split(v, ",")
	case "installonly_limit":
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("installonly_limit: %w", err)
		}
		cfg.InstallOnlyLimit = n
	case "excludes":
		cfg.Excludes = strings.Split(v, ",")
	case "protected_packages":
		cfg.ProtectedPackages = strings.Split(v, ",")
	case "releasever":
		cfg.ReleaseVer = v
	default:
		return fmt.Errorf("unknown config key %q", k)
	}
	return nil
}

// Run builds, resolves, and — if the fixture declared a result section
// — checks the post-resolve local package set, mirroring
// zif_manifest_check_section's own post-resolve bookkeeping (apply the
// resolved install/remove queues to the virtual local store, then
// compare against the declared result).
func Run(ctx context.Context, f *Fixture) (*Outcome, error) {
	t, err := f.Build(f.Local.NativeArch)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Transaction: t}

	pstate := progress.New(ctx, 1)
	if err := t.Resolve(ctx, pstate); err != nil {
		out.ResolveErr = err
		return out, nil
	}

	for _, it := range t.GetInstall() {
		f.Local.Add(it.Package)
	}
	for _, it := range t.GetRemove() {
		f.Local.Remove(store.IdentityOf(it.Package))
	}

	if f.Result != nil {
		out.ResultMismatch = checkResult(f.Local, f.Result)
	}
	return out, nil
}

func checkResult(local *store.MetaStore, want []nevra) string {
	if len(local.Packages) != len(want) {
		return fmt.Sprintf("post-resolve local store has %d packages, want %d", len(local.Packages), len(want))
	}
	for _, w := range want {
		epoch, version, release := splitEVR(w.evr)
		found := false
		for _, p := range local.Packages {
			if p.Name == w.name && p.Epoch == epoch && p.Version == version && p.Release == release && p.Arch == w.arch {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("expected package %s;%s;%s not present post-resolve", w.name, w.evr, w.arch)
		}
	}
	return ""
}
