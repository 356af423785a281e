package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/pawfund/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the campaign and donation tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			if err := database.Migrate(cmd.Context(), env.db); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")

			return nil
		},
	}
}
