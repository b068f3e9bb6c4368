package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/store"
	"github.com/hughsie/zif/txn"
)

func newRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <package>...",
		Aliases: []string{"erase"},
		Short:   "remove one or more installed packages",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, t *txn.Transaction) error {
				for _, name := range args {
					p, err := resolveInstalled(ctx, a.local, name)
					if err != nil {
						return err
					}
					if err := t.AddRemove(p, zif.ReasonRemoveUserAction); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// resolveInstalled looks up arg in the local (installed) store,
// erroring on zero or ambiguous matches. arg may also be a full
// NEVR(A) string, in which case only the matching version/release
// (and arch, if given) is considered.
func resolveInstalled(ctx context.Context, local store.Store, arg string) (*zif.Package, error) {
	name, constraint, isNEVRA := splitNEVRA(arg)

	found, err := local.Resolve(ctx, []string{name}, store.FlagName)
	if err != nil {
		return nil, fmt.Errorf("%s is not installed: %w", arg, err)
	}
	if isNEVRA {
		found = filterNEVRA(found, constraint)
		if len(found) == 0 {
			return nil, fmt.Errorf("%s is not installed: %w", arg, zif.NewStoreError("resolveInstalled", zif.ErrNotFound, arg, nil))
		}
	}
	if len(found) > 1 {
		return nil, zif.NewStoreError("resolveInstalled", zif.ErrMultipleMatches, arg, nil)
	}
	return found[0], nil
}
