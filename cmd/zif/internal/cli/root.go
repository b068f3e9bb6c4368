// Package cli implements the zif command's subcommands, following the
// teacher-pack's own cobra convention (roach88-nysm's
// brutalist/internal/cli: a RootOptions struct threaded through
// New*Command constructors, persistent flags on the root command).
package cli

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"
)

// RootOptions holds the flags every subcommand needs to build a
// transaction: where the typed config lives, and which world file
// (a manifest-format local/remote package snapshot) stands in for the
// real RPM database and repository metadata external collaborators
// (spec.md §1) this CLI does not implement.
type RootOptions struct {
	ConfigPath string
	WorldPath  string
	AssumeYes  bool
}

// NewRootCommand builds the zif command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "zif",
		Short: "zif installs, removes and updates RPM packages",
		Long: `zif computes a consistent set of package operations against a local
installed database and a federation of remote repositories, then
commits the result through RPM.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "/etc/zif/zif.yaml", "path to the zif YAML config")
	cmd.PersistentFlags().StringVar(&opts.WorldPath, "world", "", "manifest-format file standing in for the installed db and repo metadata")
	cmd.PersistentFlags().BoolVarP(&opts.AssumeYes, "assumeyes", "y", false, "don't prompt for confirmation")

	cmd.AddCommand(
		newInstallCommand(opts),
		newRemoveCommand(opts),
		newUpdateCommand(opts),
		newDowngradeCommand(opts),
		newSystemUpgradeCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

// currentUID reports the invoking user's id, captured for transaction
// audit per spec.md §3 ("The euid and cmdline are captured for audit").
func currentUID() string {
	if u, err := user.Current(); err == nil {
		return u.Uid
	}
	return "0"
}

func cmdline() string {
	return fmt.Sprint(os.Args)
}
