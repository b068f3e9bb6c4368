// Command zif is the thin CLI front door spec.md §1 puts out of core
// scope (argument parsing and TUI presentation are external
// collaborators) but SPEC_FULL.md's ambient stack still wants a real
// entry point wiring config, stores, and the transaction engine
// end to end.
//
// Logging setup follows the teacher's own cmd/libindexhttp/main.go:
// a console zerolog.Logger installed process-wide via zlog.Set, read
// everywhere else through zlog.Info(ctx)/zlog.Error(ctx).
package main

import (
	"os"

	"github.com/quay/zlog"
	"github.com/rs/zerolog"

	"github.com/hughsie/zif/cmd/zif/internal/cli"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).
		With().Timestamp().Logger()
	zlog.Set(&log)

	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
