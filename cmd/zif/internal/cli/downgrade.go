package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
	"github.com/hughsie/zif/txn"
)

func newDowngradeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "downgrade <package>...",
		Short: "downgrade one or more installed packages to an older available version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, t *txn.Transaction) error {
				for _, name := range args {
					p, err := resolveDowngrade(ctx, a.local, a.remote, name)
					if err != nil {
						return err
					}
					if err := t.AddDowngrade(p); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// resolveDowngrade picks the newest remote candidate named name whose
// version compares strictly older than the currently-installed
// package, so `zif downgrade` actually moves backwards instead of
// resolveName's "pick the newest available" behavior used by install.
func resolveDowngrade(ctx context.Context, local store.Store, remote []store.Store, name string) (*zif.Package, error) {
	installed, err := resolveInstalled(ctx, local, name)
	if err != nil {
		return nil, err
	}

	var older []*zif.Package
	for _, rs := range remote {
		found, err := rs.Resolve(ctx, []string{name}, store.FlagName)
		if err != nil {
			continue
		}
		for _, c := range found {
			if zif.Compare(c, installed, zif.CompareVersion) < 0 {
				older = append(older, c)
			}
		}
	}
	if len(older) == 0 {
		return nil, fmt.Errorf("no version of %q older than the installed %s found in any repository", name, installed.NEVRA())
	}
	newest := older[0]
	for _, c := range older[1:] {
		if zif.Compare(c, newest, zif.CompareVersion) > 0 {
			newest = c
		}
	}
	return newest, nil
}

func newSystemUpgradeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "system-upgrade",
		Short: "update every installed package to its newest available version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, t *txn.Transaction) error {
				installed, err := a.local.GetPackages(ctx)
				if err != nil {
					return err
				}
				for _, p := range installed {
					// AddUpdate is a no-op for a package already
					// queued, and a nothing-to-do update is dropped
					// silently during resolve (spec.md §4.3.2), so a
					// blanket system-upgrade need not pre-filter.
					if err := t.AddUpdate(p, zif.ReasonUpdateSystem); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
