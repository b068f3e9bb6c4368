package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hughsie/zif"
	"github.com/hughsie/zif/txn"
)

func newUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <package>...",
		Short: "update one or more installed packages to their newest available version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app, t *txn.Transaction) error {
				for _, name := range args {
					p, err := resolveInstalled(ctx, a.local, name)
					if err != nil {
						return err
					}
					if err := t.AddUpdate(p, zif.ReasonUpdateUserAction); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
