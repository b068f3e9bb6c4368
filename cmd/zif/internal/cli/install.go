package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
	"github.com/hughsie/zif/txn"
)

func newInstallCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install <package>...",
		Short: "install one or more packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, t *txn.Transaction) error {
				for _, name := range args {
					p, err := resolveName(ctx, a.remote, name)
					if err != nil {
						return err
					}
					if err := t.AddInstall(p, zif.ReasonInstallUserAction); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// resolveName picks the newest package named name across remote,
// preferring the native arch, mirroring the prefer-native search of
// spec.md §4.2. name may also be a full NEVR(A) string (e.g.
// "foo-1.0-1.x86_64"), in which case only the matching version/release
// (and arch, if given) is considered.
func resolveName(ctx context.Context, remote []store.Store, arg string) (*zif.Package, error) {
	name, constraint, isNEVRA := splitNEVRA(arg)

	var candidates []*zif.Package
	for _, rs := range remote {
		found, err := rs.Resolve(ctx, []string{name}, store.FlagName|store.FlagPreferNative)
		if err != nil {
			continue
		}
		candidates = append(candidates, found...)
	}
	if isNEVRA {
		candidates = filterNEVRA(candidates, constraint)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no package matching %q found in any repository", arg)
	}
	newest := candidates[0]
	for _, c := range candidates[1:] {
		if zif.Compare(c, newest, zif.CompareVersion) > 0 {
			newest = c
		}
	}
	return newest, nil
}
