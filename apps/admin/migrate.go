package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database"
)

var gooseRunFunc = database.RunMigrations // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix",
		Long: `Run a goose migration command on the application database.

Examples:
  admin migrate up
  admin migrate down-to 1
  admin migrate status`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return gooseRunFunc(context.Background(), cli.db, args[0], args[1:]...)
		},
	}
}
