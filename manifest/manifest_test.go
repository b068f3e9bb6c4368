package manifest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Each case is one of spec.md §8's scenarios, expressed as a fixture in
// the text format above, mirroring how the original zif shipped one
// .manifest file per scenario under tests/.
func TestFixtures(t *testing.T) {
	cases := []struct {
		name string
		body string
		// wantErr, when non-empty, is matched as a substring against
		// the resolve error.
		wantErr string
		// wantMismatch, when true, asserts ResultMismatch is non-empty
		// (used for the deliberately-wrong-result negative test).
		wantMismatch bool
	}{
		{
			// a) plain install: nothing installed, one remote
			// package, install it, result holds it.
			name: "install",
			body: `
local
remote
	foo;1.0-1;x86_64
transaction
	install
		foo
result
	foo;1.0-1;x86_64
`,
		},
		{
			// b) update: an older local package and a newer remote
			// one of the same name; after resolve the newer version
			// is the only one installed.
			name: "update",
			body: `
local
	foo;1.0-1;x86_64
remote
	foo;2.0-1;x86_64
transaction
	update
		foo
result
	foo;2.0-1;x86_64
`,
		},
		{
			// c) remove: an installed package is removed outright, no
			// replacement.
			name: "remove",
			body: `
local
	foo;1.0-1;x86_64
remote
transaction
	remove
		foo
result
`,
		},
		{
			// d) a Requires pulls in a dependency automatically.
			name: "requires pulls dependency",
			body: `
local
remote
	foo;1.0-1;x86_64
		Requires
			"bar"
	bar;1.0-1;x86_64
transaction
	install
		foo
result
	foo;1.0-1;x86_64
	bar;1.0-1;x86_64
`,
		},
		{
			// e) a Conflicts between the requested package and an
			// installed one fails resolution instead of silently
			// picking a side.
			name:    "conflicting install fails",
			wantErr: "conflicting",
			body: `
local
	bar;1.0-1;x86_64
remote
	foo;1.0-1;x86_64
		Conflicts
			"bar"
transaction
	install
		foo
`,
		},
		{
			// b) update resolves via Obsoletes: the remote candidate
			// doesn't share the installed package's name but obsoletes
			// it at a satisfying version, so updating foo actually
			// installs bar and removes foo.
			name: "update resolves via obsoletes",
			body: `
local
	foo;1.0-1;x86_64
remote
	bar;2.0-1;x86_64
		Obsoletes
			"foo >= 1.0"
transaction
	update
		foo
result
	bar;2.0-1;x86_64
`,
		},
		{
			// c) install-only-n: two kernels already installed at the
			// configured limit, installing a third evicts the oldest.
			name: "install-only-n evicts the oldest",
			body: `
config
	installonlypkgs=kernel
	installonly_limit=2
local
	kernel;1-1;x86_64
	kernel;2-1;x86_64
remote
	kernel;3-1;x86_64
transaction
	install
		kernel;3-1;x86_64
result
	kernel;2-1;x86_64
	kernel;3-1;x86_64
`,
		},
		{
			// f) a Conflicts that can be resolved by updating the
			// conflicting installed package instead of failing outright.
			name: "conflict resolved by update",
			body: `
local
	bar;1.0-1;x86_64
remote
	foo;1.0-1;x86_64
		Conflicts
			"bar < 2.0"
	bar;2.0-1;x86_64
transaction
	install
		foo
result
	foo;1.0-1;x86_64
	bar;2.0-1;x86_64
`,
		},
		{
			// §8 property 4: a protected package cannot be removed by
			// a user-action remove.
			name:    "protected package blocks remove",
			wantErr: "protected",
			body: `
config
	protected_packages=glibc
local
	glibc;1.0-1;x86_64
remote
transaction
	remove
		glibc
`,
		},
		{
			// f) downgrade: a newer local package and an older remote
			// one; downgrading installs the older version in place of
			// the newer.
			name: "downgrade",
			body: `
local
	foo;2.0-1;x86_64
remote
	foo;1.0-1;x86_64
transaction
	downgrade
		foo
result
	foo;1.0-1;x86_64
`,
		},
		{
			// skip_broken: one resolvable install and one that can
			// never be satisfied; with skip_broken set, the good
			// install still lands.
			name: "skip broken recovers the rest",
			body: `
config
	skip_broken=true
local
remote
	foo;1.0-1;x86_64
	bar;1.0-1;x86_64
		Requires
			"nonexistent"
transaction
	install
		foo
	install
		bar
result
	foo;1.0-1;x86_64
`,
		},
		{
			// a result block that doesn't match what actually
			// resolved should be reported as a mismatch, not silently
			// accepted — this exercises checkResult's own failure path.
			name:         "deliberately wrong result is caught",
			wantMismatch: true,
			body: `
local
remote
	foo;1.0-1;x86_64
transaction
	install
		foo
result
	foo;9.9-1;x86_64
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Parse(tc.name, strings.NewReader(tc.body))
			require.NoError(t, err)

			out, err := Run(context.Background(), f)
			require.NoError(t, err)

			switch {
			case tc.wantMismatch:
				require.NotEmpty(t, out.ResultMismatch)
			case tc.wantErr != "":
				require.Error(t, out.ResolveErr)
				require.ErrorContains(t, out.ResolveErr, tc.wantErr)
			default:
				require.NoError(t, out.ResolveErr)
				require.Empty(t, out.ResultMismatch)
			}
		})
	}
}

func TestParseRejectsMalformedPackageID(t *testing.T) {
	body := `
local
	foo-missing-fields
remote
`
	_, err := Parse("bad", strings.NewReader(body))
	require.Error(t, err)
}

func TestParseDisableDirective(t *testing.T) {
	body := `
disable
local
remote
`
	f, err := Parse("disabled", strings.NewReader(body))
	require.NoError(t, err)
	require.True(t, f.Disabled)
}

func TestParseUnknownSection(t *testing.T) {
	_, err := Parse("bad-section", strings.NewReader("bogus\n"))
	require.Error(t, err)
}
